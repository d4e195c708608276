package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sakura6264/mourse/internal/core/autoclicker"

	"github.com/gofrs/flock"
)

const instanceLockTimeout = time.Second

var errAlreadyRunning = errors.New("another mourse instance is already running")

type clickFileSettings struct {
	IntervalMS    *int   `json:"interval_ms,omitempty"`
	Button        string `json:"button,omitempty"`
	JitterEnabled bool   `json:"jitter_enabled"`
	JitterRangeMS *int   `json:"jitter_range_ms,omitempty"`
}

type moveFileSettings struct {
	IntervalMS    *int   `json:"interval_ms,omitempty"`
	Pattern       string `json:"pattern,omitempty"`
	Distance      *int   `json:"distance,omitempty"`
	JitterEnabled bool   `json:"jitter_enabled"`
	JitterRangeMS *int   `json:"jitter_range_ms,omitempty"`
}

type settingsFile struct {
	Click clickFileSettings `json:"click"`
	Move  moveFileSettings  `json:"move"`
}

func defaultSettingsPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		return filepath.Join(".", ".mourse-settings.json")
	}
	return filepath.Join(configDir, "mourse", "settings.json")
}

// loadSettings reads path and returns usable settings. Fields that are
// missing fall back to defaults silently; invalid ones fall back with a
// warning. A missing file yields defaults.
func loadSettings(path string) (autoclicker.ClickSettings, autoclicker.MoveSettings, []string, error) {
	click := autoclicker.DefaultClickSettings()
	move := autoclicker.DefaultMoveSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return click, move, nil, nil
		}
		return click, move, nil, err
	}

	var raw settingsFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return click, move, nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	var warnings []string
	warn := func(field string, value any) {
		warnings = append(warnings, fmt.Sprintf("invalid %s %v in %s, using default", field, value, path))
	}

	if v := raw.Click.IntervalMS; v != nil {
		if *v >= autoclicker.MinClickIntervalMS && *v <= autoclicker.MaxClickIntervalMS {
			click.IntervalMS = *v
		} else {
			warn("click.interval_ms", *v)
		}
	}
	if raw.Click.Button != "" {
		if button, err := autoclicker.ParseButton(raw.Click.Button); err == nil {
			click.Button = button
		} else {
			warn("click.button", raw.Click.Button)
		}
	}
	click.JitterEnabled = raw.Click.JitterEnabled
	if v := raw.Click.JitterRangeMS; v != nil {
		if *v >= 0 && *v <= autoclicker.MaxClickJitterMS {
			click.JitterRangeMS = *v
		} else {
			warn("click.jitter_range_ms", *v)
		}
	}

	if v := raw.Move.IntervalMS; v != nil {
		if *v >= autoclicker.MinMoveIntervalMS && *v <= autoclicker.MaxMoveIntervalMS {
			move.IntervalMS = *v
		} else {
			warn("move.interval_ms", *v)
		}
	}
	if raw.Move.Pattern != "" {
		if pattern, err := autoclicker.ParsePattern(raw.Move.Pattern); err == nil {
			move.Pattern = pattern
		} else {
			warn("move.pattern", raw.Move.Pattern)
		}
	}
	if v := raw.Move.Distance; v != nil {
		if *v >= autoclicker.MinMoveDistance && *v <= autoclicker.MaxMoveDistance {
			move.Distance = *v
		} else {
			warn("move.distance", *v)
		}
	}
	move.JitterEnabled = raw.Move.JitterEnabled
	if v := raw.Move.JitterRangeMS; v != nil {
		if *v >= 0 && *v <= autoclicker.MaxMoveJitterMS {
			move.JitterRangeMS = *v
		} else {
			warn("move.jitter_range_ms", *v)
		}
	}

	return click, move, warnings, nil
}

func saveSettings(path string, click autoclicker.ClickSettings, move autoclicker.MoveSettings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	out := settingsFile{
		Click: clickFileSettings{
			IntervalMS:    intPtr(click.IntervalMS),
			Button:        string(click.Button),
			JitterEnabled: click.JitterEnabled,
			JitterRangeMS: intPtr(click.JitterRangeMS),
		},
		Move: moveFileSettings{
			IntervalMS:    intPtr(move.IntervalMS),
			Pattern:       string(move.Pattern),
			Distance:      intPtr(move.Distance),
			JitterEnabled: move.JitterEnabled,
			JitterRangeMS: intPtr(move.JitterRangeMS),
		},
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// acquireInstanceLock takes an exclusive lock next to the settings file so two
// processes never fight over hotkeys or the settings file.
func acquireInstanceLock(settingsPath string) (*flock.Flock, error) {
	lockPath := settingsPath + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), instanceLockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errAlreadyRunning
		}
		return nil, fmt.Errorf("acquiring instance lock: %w", err)
	}
	if !locked {
		return nil, errAlreadyRunning
	}
	return lock, nil
}

func intPtr(v int) *int {
	return &v
}
