package autoclicker

import "errors"

var (
	ErrHotkeyRegistration = errors.New("hotkey registration failed")
	ErrInvalidSetting     = errors.New("invalid setting value")
	ErrInputInjection     = errors.New("input injection failed")
)
