package autoclicker

import (
	"fmt"
	"strings"
	"sync"
)

const (
	MinClickIntervalMS = 10
	MaxClickIntervalMS = 1000
	MaxClickJitterMS   = 1000

	MinMoveIntervalMS = 10
	MaxMoveIntervalMS = 500
	MinMoveDistance   = 10
	MaxMoveDistance   = 500
	MaxMoveJitterMS   = 500
)

type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

func ParseButton(value string) (Button, error) {
	switch Button(strings.ToLower(strings.TrimSpace(value))) {
	case ButtonLeft:
		return ButtonLeft, nil
	case ButtonRight:
		return ButtonRight, nil
	case ButtonMiddle:
		return ButtonMiddle, nil
	default:
		return "", fmt.Errorf("%w: button %q (expected left|right|middle)", ErrInvalidSetting, value)
	}
}

// Code returns the BTN_* code synthesized for the button.
func (b Button) Code() uint16 {
	switch b {
	case ButtonRight:
		return RightButtonCode
	case ButtonMiddle:
		return MiddleButtonCode
	default:
		return LeftButtonCode
	}
}

type Pattern string

const (
	PatternRandom Pattern = "random"
	PatternCircle Pattern = "circle"
	PatternJiggle Pattern = "jiggle"
)

func ParsePattern(value string) (Pattern, error) {
	switch Pattern(strings.ToLower(strings.TrimSpace(value))) {
	case PatternRandom:
		return PatternRandom, nil
	case PatternCircle:
		return PatternCircle, nil
	case PatternJiggle:
		return PatternJiggle, nil
	default:
		return "", fmt.Errorf("%w: pattern %q (expected random|circle|jiggle)", ErrInvalidSetting, value)
	}
}

type ClickSettings struct {
	IntervalMS    int
	Button        Button
	JitterEnabled bool
	JitterRangeMS int
}

type MoveSettings struct {
	IntervalMS    int
	Pattern       Pattern
	Distance      int
	JitterEnabled bool
	JitterRangeMS int
}

func DefaultClickSettings() ClickSettings {
	return ClickSettings{
		IntervalMS:    1000,
		Button:        ButtonLeft,
		JitterEnabled: false,
		JitterRangeMS: 500,
	}
}

func DefaultMoveSettings() MoveSettings {
	return MoveSettings{
		IntervalMS:    100,
		Pattern:       PatternRandom,
		Distance:      100,
		JitterEnabled: false,
		JitterRangeMS: 200,
	}
}

// Validate reports the first field outside its allowed range.
func (s ClickSettings) Validate() error {
	if s.IntervalMS < MinClickIntervalMS || s.IntervalMS > MaxClickIntervalMS {
		return fmt.Errorf("%w: click interval %dms outside [%d,%d]", ErrInvalidSetting, s.IntervalMS, MinClickIntervalMS, MaxClickIntervalMS)
	}
	if _, err := ParseButton(string(s.Button)); err != nil {
		return err
	}
	if s.JitterRangeMS < 0 || s.JitterRangeMS > MaxClickJitterMS {
		return fmt.Errorf("%w: click jitter range %dms outside [0,%d]", ErrInvalidSetting, s.JitterRangeMS, MaxClickJitterMS)
	}
	return nil
}

func (s MoveSettings) Validate() error {
	if s.IntervalMS < MinMoveIntervalMS || s.IntervalMS > MaxMoveIntervalMS {
		return fmt.Errorf("%w: move interval %dms outside [%d,%d]", ErrInvalidSetting, s.IntervalMS, MinMoveIntervalMS, MaxMoveIntervalMS)
	}
	if _, err := ParsePattern(string(s.Pattern)); err != nil {
		return err
	}
	if s.Distance < MinMoveDistance || s.Distance > MaxMoveDistance {
		return fmt.Errorf("%w: move distance %d outside [%d,%d]", ErrInvalidSetting, s.Distance, MinMoveDistance, MaxMoveDistance)
	}
	if s.JitterRangeMS < 0 || s.JitterRangeMS > MaxMoveJitterMS {
		return fmt.Errorf("%w: move jitter range %dms outside [0,%d]", ErrInvalidSetting, s.JitterRangeMS, MaxMoveJitterMS)
	}
	return nil
}

// SettingsStore holds the user-facing settings. Generators read a snapshot on
// every tick, so writes apply from the next tick on.
type SettingsStore struct {
	mu    sync.RWMutex
	click ClickSettings
	move  MoveSettings

	listenersMu sync.Mutex
	listeners   []func()
}

func NewSettingsStore(click ClickSettings, move MoveSettings) (*SettingsStore, error) {
	if err := click.Validate(); err != nil {
		return nil, err
	}
	if err := move.Validate(); err != nil {
		return nil, err
	}
	return &SettingsStore{click: click, move: move}, nil
}

func (s *SettingsStore) Click() ClickSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.click
}

func (s *SettingsStore) Move() MoveSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.move
}

// OnChange registers fn to run after every successful mutation.
func (s *SettingsStore) OnChange(fn func()) {
	if fn == nil {
		return
	}
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

func (s *SettingsStore) notify() {
	s.listenersMu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// SetClickInterval clamps ms into [MinClickIntervalMS, MaxClickIntervalMS]
// and returns the value that was stored.
func (s *SettingsStore) SetClickInterval(ms int) int {
	ms = clampInt(ms, MinClickIntervalMS, MaxClickIntervalMS)
	s.mu.Lock()
	s.click.IntervalMS = ms
	s.mu.Unlock()
	s.notify()
	return ms
}

func (s *SettingsStore) SetClickButton(button Button) error {
	parsed, err := ParseButton(string(button))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.click.Button = parsed
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *SettingsStore) SetClickJitter(enabled bool, rangeMS int) error {
	if rangeMS < 0 {
		return fmt.Errorf("%w: click jitter range must be >= 0, got %d", ErrInvalidSetting, rangeMS)
	}
	rangeMS = clampInt(rangeMS, 0, MaxClickJitterMS)
	s.mu.Lock()
	s.click.JitterEnabled = enabled
	s.click.JitterRangeMS = rangeMS
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *SettingsStore) SetMoveInterval(ms int) int {
	ms = clampInt(ms, MinMoveIntervalMS, MaxMoveIntervalMS)
	s.mu.Lock()
	s.move.IntervalMS = ms
	s.mu.Unlock()
	s.notify()
	return ms
}

func (s *SettingsStore) SetMoveDistance(distance int) int {
	distance = clampInt(distance, MinMoveDistance, MaxMoveDistance)
	s.mu.Lock()
	s.move.Distance = distance
	s.mu.Unlock()
	s.notify()
	return distance
}

func (s *SettingsStore) SetMovePattern(pattern Pattern) error {
	parsed, err := ParsePattern(string(pattern))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.move.Pattern = parsed
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *SettingsStore) SetMoveJitter(enabled bool, rangeMS int) error {
	if rangeMS < 0 {
		return fmt.Errorf("%w: move jitter range must be >= 0, got %d", ErrInvalidSetting, rangeMS)
	}
	rangeMS = clampInt(rangeMS, 0, MaxMoveJitterMS)
	s.mu.Lock()
	s.move.JitterEnabled = enabled
	s.move.JitterRangeMS = rangeMS
	s.mu.Unlock()
	s.notify()
	return nil
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
