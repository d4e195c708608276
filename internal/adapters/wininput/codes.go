package wininput

import (
	"fmt"
	"strconv"
	"strings"
)

// Codes follow the Linux input numbering so the core sees the same values on
// every platform.
const (
	CodeBTNLeft   uint16 = 0x110
	CodeBTNRight  uint16 = 0x111
	CodeBTNMiddle uint16 = 0x112
)

const (
	codeKEYF1  uint16 = 59
	codeKEYF2  uint16 = 60
	codeKEYF3  uint16 = 61
	codeKEYF4  uint16 = 62
	codeKEYF5  uint16 = 63
	codeKEYF6  uint16 = 64
	codeKEYF7  uint16 = 65
	codeKEYF8  uint16 = 66
	codeKEYF9  uint16 = 67
	codeKEYF10 uint16 = 68
	codeKEYF11 uint16 = 87
	codeKEYF12 uint16 = 88
)

const (
	vkLBUTTON uint32 = 0x01
	vkRBUTTON uint32 = 0x02
	vkMBUTTON uint32 = 0x04

	vkF1  uint32 = 0x70
	vkF2  uint32 = 0x71
	vkF3  uint32 = 0x72
	vkF4  uint32 = 0x73
	vkF5  uint32 = 0x74
	vkF6  uint32 = 0x75
	vkF7  uint32 = 0x76
	vkF8  uint32 = 0x77
	vkF9  uint32 = 0x78
	vkF10 uint32 = 0x79
	vkF11 uint32 = 0x7A
	vkF12 uint32 = 0x7B
)

const (
	CodeKEYF6 = codeKEYF6
	CodeKEYF7 = codeKEYF7
)

var codeToName = map[uint16]string{
	CodeBTNLeft:   "BTN_LEFT",
	CodeBTNRight:  "BTN_RIGHT",
	CodeBTNMiddle: "BTN_MIDDLE",
	codeKEYF1:     "KEY_F1",
	codeKEYF2:     "KEY_F2",
	codeKEYF3:     "KEY_F3",
	codeKEYF4:     "KEY_F4",
	codeKEYF5:     "KEY_F5",
	codeKEYF6:     "KEY_F6",
	codeKEYF7:     "KEY_F7",
	codeKEYF8:     "KEY_F8",
	codeKEYF9:     "KEY_F9",
	codeKEYF10:    "KEY_F10",
	codeKEYF11:    "KEY_F11",
	codeKEYF12:    "KEY_F12",
}

var codeToVK = map[uint16]uint32{
	CodeBTNLeft:   vkLBUTTON,
	CodeBTNRight:  vkRBUTTON,
	CodeBTNMiddle: vkMBUTTON,
	codeKEYF1:     vkF1,
	codeKEYF2:     vkF2,
	codeKEYF3:     vkF3,
	codeKEYF4:     vkF4,
	codeKEYF5:     vkF5,
	codeKEYF6:     vkF6,
	codeKEYF7:     vkF7,
	codeKEYF8:     vkF8,
	codeKEYF9:     vkF9,
	codeKEYF10:    vkF10,
	codeKEYF11:    vkF11,
	codeKEYF12:    vkF12,
}

var codeNameToCode map[string]uint16
var vkToCode map[uint32]uint16

func init() {
	codeNameToCode = make(map[string]uint16, len(codeToName)+2)
	for code, name := range codeToName {
		codeNameToCode[name] = code
	}
	codeNameToCode["MOUSE1"] = CodeBTNLeft
	codeNameToCode["MOUSE2"] = CodeBTNRight

	vkToCode = make(map[uint32]uint16, len(codeToVK))
	for code, vk := range codeToVK {
		vkToCode[vk] = code
	}
}

func ParseCode(value string) (uint16, error) {
	raw := strings.ToUpper(strings.TrimSpace(value))
	if raw == "" {
		return 0, fmt.Errorf("key code is empty")
	}
	if code, ok := codeNameToCode[raw]; ok {
		return code, nil
	}

	parsed, err := strconv.ParseInt(raw, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown key %q: use names like KEY_F6/BTN_LEFT or numeric code", value)
	}
	if parsed < 0 || parsed > 0xFFFF {
		return 0, fmt.Errorf("key code out of range: %d", parsed)
	}
	return uint16(parsed), nil
}

func FormatCodeName(code uint16) string {
	if name, ok := codeToName[code]; ok {
		return name
	}
	return strconv.Itoa(int(code))
}

func CodeToVK(code uint16) (uint32, bool) {
	vk, ok := codeToVK[code]
	return vk, ok
}

// CodeFromVK maps a keyboard hook virtual key to an input code. Mouse button
// virtual keys never arrive through the keyboard hook and are not mapped back.
func CodeFromVK(vk uint32) (uint16, bool) {
	switch vk {
	case vkLBUTTON, vkRBUTTON, vkMBUTTON:
		return 0, false
	}
	code, ok := vkToCode[vk]
	return code, ok
}
