//go:build linux

package linuxinput

import (
	"testing"

	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

func TestHotkeyCodesMatchCore(t *testing.T) {
	if CodeKEYF6 != autoclicker.KeyF6Code {
		t.Fatalf("CodeKEYF6=%d, core uses %d", CodeKEYF6, autoclicker.KeyF6Code)
	}
	if CodeKEYF7 != autoclicker.KeyF7Code {
		t.Fatalf("CodeKEYF7=%d, core uses %d", CodeKEYF7, autoclicker.KeyF7Code)
	}
}

func TestParseAndFormatCodes(t *testing.T) {
	tests := []struct {
		raw      string
		expected uint16
	}{
		{raw: "KEY_F6", expected: CodeKEYF6},
		{raw: "key_f7", expected: CodeKEYF7},
		{raw: "BTN_RIGHT", expected: autoclicker.RightButtonCode},
		{raw: "0x112", expected: autoclicker.MiddleButtonCode},
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

	if name := FormatCodeName(CodeKEYF6); name != "KEY_F6" {
		t.Fatalf("FormatCodeName(KEY_F6)=%q", name)
	}
	if _, err := ParseCode(""); err == nil {
		t.Fatalf("expected error for empty code")
	}
	if _, err := ParseCode("0x10000"); err == nil {
		t.Fatalf("expected error for out-of-range code")
	}
}

func TestPreferPhysicalKeyboards(t *testing.T) {
	matches := []DeviceInfo{
		{Path: "/dev/input/event9", Name: "ydotoold virtual device", IsVirtual: true},
		{Path: "/dev/input/event5", Name: "Keyboard with touchpad", IsPointer: true},
		{Path: "/dev/input/event3", Name: "AT Translated Set 2 keyboard"},
		{Path: "/dev/input/event1", Name: "USB Keyboard"},
	}

	got := preferPhysicalKeyboards(matches)
	if len(got) != 2 || got[0].Path != "/dev/input/event1" || got[1].Path != "/dev/input/event3" {
		t.Fatalf("preferPhysicalKeyboards() = %+v", got)
	}

	onlyVirtual := []DeviceInfo{{Path: "/dev/input/event9", IsVirtual: true}}
	if got := preferPhysicalKeyboards(onlyVirtual); len(got) != 1 {
		t.Fatalf("expected fallback to virtual devices, got %+v", got)
	}
}

func TestSelectionMissing(t *testing.T) {
	selection := &SourceSelection{
		HotkeyPaths: map[uint16]map[string]struct{}{
			CodeKEYF6: {"/dev/input/event3": {}},
		},
	}
	missing := selection.Missing([]uint16{CodeKEYF6, CodeKEYF7})
	if len(missing) != 1 || missing[0] != CodeKEYF7 {
		t.Fatalf("Missing() = %v, want [KEY_F7]", missing)
	}
}
