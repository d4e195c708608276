package wininput

import (
	"testing"

	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

func TestCodesMatchCore(t *testing.T) {
	if CodeKEYF6 != autoclicker.KeyF6Code || CodeKEYF7 != autoclicker.KeyF7Code {
		t.Fatalf("hotkey codes %d/%d differ from core %d/%d", CodeKEYF6, CodeKEYF7, autoclicker.KeyF6Code, autoclicker.KeyF7Code)
	}
	if CodeBTNLeft != autoclicker.LeftButtonCode ||
		CodeBTNRight != autoclicker.RightButtonCode ||
		CodeBTNMiddle != autoclicker.MiddleButtonCode {
		t.Fatalf("button codes differ from core")
	}
}

func TestParseAndFormatCodes(t *testing.T) {
	tests := []struct {
		raw      string
		expected uint16
	}{
		{raw: "BTN_LEFT", expected: CodeBTNLeft},
		{raw: "btn_middle", expected: CodeBTNMiddle},
		{raw: "mouse2", expected: CodeBTNRight},
		{raw: "KEY_F6", expected: CodeKEYF6},
		{raw: "65", expected: CodeKEYF7},
	}

	for _, tc := range tests {
		got, err := ParseCode(tc.raw)
		if err != nil {
			t.Fatalf("ParseCode(%q) returned error: %v", tc.raw, err)
		}
		if got != tc.expected {
			t.Fatalf("ParseCode(%q)=%d, want %d", tc.raw, got, tc.expected)
		}
	}

	if name := FormatCodeName(CodeKEYF7); name != "KEY_F7" {
		t.Fatalf("FormatCodeName(CodeKEYF7)=%q, want KEY_F7", name)
	}
	if name := FormatCodeName(999); name != "999" {
		t.Fatalf("FormatCodeName(999)=%q, want 999", name)
	}
	if _, err := ParseCode("KEY_BOGUS"); err == nil {
		t.Fatalf("expected error for unknown name")
	}
}

func TestVKMappings(t *testing.T) {
	if code, ok := CodeFromVK(vkF6); !ok || code != CodeKEYF6 {
		t.Fatalf("CodeFromVK(vkF6)=%d,%v, want %d,true", code, ok, CodeKEYF6)
	}
	if code, ok := CodeFromVK(vkF7); !ok || code != CodeKEYF7 {
		t.Fatalf("CodeFromVK(vkF7)=%d,%v, want %d,true", code, ok, CodeKEYF7)
	}
	if _, ok := CodeFromVK(vkLBUTTON); ok {
		t.Fatalf("mouse button VK must not map from keyboard hook")
	}
	if _, ok := CodeFromVK(0x41); ok {
		t.Fatalf("letter keys are not hotkeys")
	}
	if vk, ok := CodeToVK(codeKEYF12); !ok || vk != vkF12 {
		t.Fatalf("CodeToVK(KEY_F12)=%d,%v, want %d,true", vk, ok, vkF12)
	}
}
