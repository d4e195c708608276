package main

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig returned error: %v", err)
	}
	if !cfg.ui {
		t.Fatalf("expected GUI mode by default")
	}
	if cfg.click != autoclicker.DefaultClickSettings() {
		t.Fatalf("click = %+v, want defaults", cfg.click)
	}
	if cfg.move != autoclicker.DefaultMoveSettings() {
		t.Fatalf("move = %+v, want defaults", cfg.move)
	}
	if cfg.logLevel != slog.LevelInfo {
		t.Fatalf("logLevel = %v, want info", cfg.logLevel)
	}
	if len(cfg.explicit) != 0 {
		t.Fatalf("explicit = %v, want none", cfg.explicit)
	}
}

func TestParseConfigFlags(t *testing.T) {
	cfg, err := parseConfig([]string{
		"--cli",
		"--interval", "50",
		"--button", "right",
		"--jitter",
		"--jitter-range", "25",
		"--move-pattern", "jiggle",
		"--move-distance", "40",
		"--log-level", "debug",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig returned error: %v", err)
	}
	if cfg.ui {
		t.Fatalf("--cli must disable the GUI")
	}
	want := autoclicker.ClickSettings{IntervalMS: 50, Button: autoclicker.ButtonRight, JitterEnabled: true, JitterRangeMS: 25}
	if cfg.click != want {
		t.Fatalf("click = %+v, want %+v", cfg.click, want)
	}
	if cfg.move.Pattern != autoclicker.PatternJiggle || cfg.move.Distance != 40 {
		t.Fatalf("move = %+v", cfg.move)
	}
	if cfg.logLevel != slog.LevelDebug {
		t.Fatalf("logLevel = %v, want debug", cfg.logLevel)
	}
	for _, name := range []string{"interval", "button", "jitter", "jitter-range", "move-pattern", "move-distance"} {
		if !cfg.explicit[name] {
			t.Fatalf("flag %q not recorded as explicit", name)
		}
	}
}

func TestParseConfigRejectsOutOfRangeValues(t *testing.T) {
	cases := [][]string{
		{"--interval", "5"},
		{"--interval", "1001"},
		{"--button", "thumb"},
		{"--jitter-range", "-1"},
		{"--move-interval", "501"},
		{"--move-pattern", "spiral"},
		{"--move-distance", "0"},
		{"--down-ms", "-1"},
	}
	for _, args := range cases {
		_, err := parseConfig(args, io.Discard)
		if !errors.Is(err, autoclicker.ErrInvalidSetting) {
			t.Fatalf("parseConfig(%v) err = %v, want ErrInvalidSetting", args, err)
		}
	}

	if _, err := parseConfig([]string{"--log-level", "loud"}, io.Discard); err == nil {
		t.Fatalf("expected error for invalid log level")
	}
	if _, err := parseConfig([]string{"extra"}, io.Discard); err == nil {
		t.Fatalf("expected error for positional arguments")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg, err := parseConfig([]string{"--interval", "20", "--move-pattern", "circle"}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig returned error: %v", err)
	}

	stored := autoclicker.ClickSettings{IntervalMS: 600, Button: autoclicker.ButtonMiddle, JitterEnabled: true, JitterRangeMS: 70}
	storedMove := autoclicker.MoveSettings{IntervalMS: 300, Pattern: autoclicker.PatternRandom, Distance: 250, JitterRangeMS: 10}

	click, move := applyFlagOverrides(cfg, stored, storedMove)
	if click.IntervalMS != 20 {
		t.Fatalf("interval flag not applied: %+v", click)
	}
	if click.Button != autoclicker.ButtonMiddle || !click.JitterEnabled || click.JitterRangeMS != 70 {
		t.Fatalf("stored click fields overwritten: %+v", click)
	}
	if move.Pattern != autoclicker.PatternCircle {
		t.Fatalf("pattern flag not applied: %+v", move)
	}
	if move.IntervalMS != 300 || move.Distance != 250 {
		t.Fatalf("stored move fields overwritten: %+v", move)
	}
}

func TestRuntimeConfig(t *testing.T) {
	cfg := config{downMS: 12.5}
	rc := runtimeConfig(cfg, autoclicker.DefaultClickSettings(), autoclicker.DefaultMoveSettings())
	if rc.ClickDown != 12500*time.Microsecond {
		t.Fatalf("ClickDown = %v, want 12.5ms", rc.ClickDown)
	}
	if rc.HotkeyDebounce != autoclicker.DefaultHotkeyDebounce {
		t.Fatalf("HotkeyDebounce = %v", rc.HotkeyDebounce)
	}
}

func TestLineSinkWriterSplitsLines(t *testing.T) {
	var got []string
	w := &lineSinkWriter{sink: func(line string) { got = append(got, line) }}

	_, _ = w.Write([]byte("first\nsec"))
	_, _ = w.Write([]byte("ond\n\n  third  \n"))

	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %v, want %v", got, want)
	}
}

func TestSettingsFileURL(t *testing.T) {
	u, err := settingsFileURL("/tmp/mourse/settings.json")
	if err != nil {
		t.Fatalf("settingsFileURL returned error: %v", err)
	}
	if u.Scheme != "file" {
		t.Fatalf("scheme = %q, want file", u.Scheme)
	}
	if u.Path == "" || u.Path[0] != '/' {
		t.Fatalf("path %q must be absolute", u.Path)
	}
}

func TestFormatHotkeyErrors(t *testing.T) {
	if msg := formatHotkeyErrors(nil); msg != "" {
		t.Fatalf("expected empty message, got %q", msg)
	}
	msg := formatHotkeyErrors(map[autoclicker.HotkeyID]error{
		autoclicker.HotkeyMove: errors.New("grab failed"),
	})
	if msg == "" {
		t.Fatalf("expected message for failed hotkey")
	}
}
