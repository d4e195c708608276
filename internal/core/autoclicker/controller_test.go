package autoclicker

import (
	"errors"
	"testing"
)

func newTestController(t *testing.T) (*Controller, *recordingInjector) {
	t.Helper()
	injector := &recordingInjector{}
	c, err := NewController(Config{}, injector, noopLogger{})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	t.Cleanup(c.Stop)
	return c, injector
}

func pressAndRelease(c *Controller, code uint16) {
	c.SubmitKey("kbd", code, 1)
	c.SubmitKey("kbd", code, 0)
}

func TestF6TwiceReturnsClickerToIdle(t *testing.T) {
	c, _ := newTestController(t)
	c.Clicker().count.Store(7)

	pressAndRelease(c, KeyF6Code)
	if !c.Clicker().IsEnabled() {
		t.Fatalf("expected clicker running after first F6")
	}
	pressAndRelease(c, KeyF6Code)
	if c.Clicker().IsEnabled() {
		t.Fatalf("expected clicker idle after second F6")
	}
	if c.Clicker().Count() != 7 {
		t.Fatalf("Count() = %d, want 7", c.Clicker().Count())
	}
}

func TestF7LeavesClickerUntouched(t *testing.T) {
	c, _ := newTestController(t)
	c.Clicker().SetEnabled(true)
	c.Clicker().count.Store(3)

	pressAndRelease(c, KeyF7Code)
	if !c.Mover().IsEnabled() {
		t.Fatalf("expected mover running after F7")
	}
	pressAndRelease(c, KeyF7Code)

	status := c.Status()
	if !status.ClickEnabled || status.Clicks != 3 {
		t.Fatalf("clicker changed by F7: %+v", status)
	}
	if status.MoveEnabled {
		t.Fatalf("expected mover idle after second F7")
	}
}

func TestStopReleasesHeldButtonBeforeClosingInjector(t *testing.T) {
	c, injector := newTestController(t)
	c.Clicker().held.Store(uint32(RightButtonCode))

	c.Stop()

	if !injector.isClosed() {
		t.Fatalf("expected injector to be closed")
	}
	assertReleaseSuffix(t, injector.snapshot(), RightButtonCode)
}

func TestStatusReportsHotkeyFailures(t *testing.T) {
	c, _ := newTestController(t)
	c.Hotkeys().MarkFailed(HotkeyMove, errors.New("no keyboard exposes KEY_F7"))

	pressAndRelease(c, KeyF7Code)
	status := c.Status()
	if status.MoveEnabled {
		t.Fatalf("failed hotkey must leave its toggle inactive")
	}
	if err := status.HotkeyErrors[HotkeyMove]; !errors.Is(err, ErrHotkeyRegistration) {
		t.Fatalf("HotkeyErrors[move] = %v", err)
	}
}

func TestNewControllerUsesDefaultsForZeroSettings(t *testing.T) {
	c, _ := newTestController(t)
	if c.Settings().Click() != DefaultClickSettings() {
		t.Fatalf("Click() = %+v", c.Settings().Click())
	}
	if c.Settings().Move() != DefaultMoveSettings() {
		t.Fatalf("Move() = %+v", c.Settings().Move())
	}
}

func TestNewControllerRejectsInvalidSettings(t *testing.T) {
	cfg := Config{Click: DefaultClickSettings()}
	cfg.Click.Button = "thumb"
	if _, err := NewController(cfg, &recordingInjector{}, noopLogger{}); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("NewController() error = %v, want ErrInvalidSetting", err)
	}
}
