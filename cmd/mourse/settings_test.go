package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mourse", "settings.json")

	click := autoclicker.ClickSettings{IntervalMS: 250, Button: autoclicker.ButtonMiddle, JitterEnabled: true, JitterRangeMS: 40}
	move := autoclicker.MoveSettings{IntervalMS: 50, Pattern: autoclicker.PatternCircle, Distance: 30, JitterEnabled: true, JitterRangeMS: 20}
	if err := saveSettings(path, click, move); err != nil {
		t.Fatalf("saveSettings returned error: %v", err)
	}

	gotClick, gotMove, warnings, err := loadSettings(path)
	if err != nil {
		t.Fatalf("loadSettings returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if gotClick != click {
		t.Fatalf("click = %+v, want %+v", gotClick, click)
	}
	if gotMove != move {
		t.Fatalf("move = %+v, want %+v", gotMove, move)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}
}

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	click, move, warnings, err := loadSettings(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("loadSettings returned error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if click != autoclicker.DefaultClickSettings() || move != autoclicker.DefaultMoveSettings() {
		t.Fatalf("expected defaults, got %+v %+v", click, move)
	}
}

func TestLoadSettingsReplacesInvalidFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	data := `{
  "click": {"interval_ms": 5, "button": "thumb", "jitter_enabled": true, "jitter_range_ms": 100},
  "move": {"interval_ms": 200, "pattern": "spiral", "distance": 9000}
}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	click, move, warnings, err := loadSettings(path)
	if err != nil {
		t.Fatalf("loadSettings returned error: %v", err)
	}

	defClick := autoclicker.DefaultClickSettings()
	defMove := autoclicker.DefaultMoveSettings()
	if click.IntervalMS != defClick.IntervalMS || click.Button != defClick.Button {
		t.Fatalf("invalid click fields not replaced: %+v", click)
	}
	if !click.JitterEnabled || click.JitterRangeMS != 100 {
		t.Fatalf("valid click fields lost: %+v", click)
	}
	if move.IntervalMS != 200 {
		t.Fatalf("valid move interval lost: %+v", move)
	}
	if move.Pattern != defMove.Pattern || move.Distance != defMove.Distance {
		t.Fatalf("invalid move fields not replaced: %+v", move)
	}
	if len(warnings) != 4 {
		t.Fatalf("warnings = %v, want 4 entries", warnings)
	}
	if !strings.Contains(warnings[0], "click.interval_ms") {
		t.Fatalf("first warning = %q", warnings[0])
	}
}

func TestLoadSettingsRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	click, move, _, err := loadSettings(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if click != autoclicker.DefaultClickSettings() || move != autoclicker.DefaultMoveSettings() {
		t.Fatalf("expected defaults alongside the error")
	}
}

func TestInstanceLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	first, err := acquireInstanceLock(path)
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}

	if _, err := acquireInstanceLock(path); !errors.Is(err, errAlreadyRunning) {
		t.Fatalf("second lock err = %v, want errAlreadyRunning", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	second, err := acquireInstanceLock(path)
	if err != nil {
		t.Fatalf("lock after unlock failed: %v", err)
	}
	_ = second.Unlock()
}
