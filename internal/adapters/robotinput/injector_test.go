package robotinput

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

type recordingDriver struct {
	calls     []string
	toggleErr error
}

func (d *recordingDriver) Toggle(button string, down bool) error {
	state := "up"
	if down {
		state = "down"
	}
	d.calls = append(d.calls, button+":"+state)
	return d.toggleErr
}

func (d *recordingDriver) MoveRelative(dx, dy int) {
	d.calls = append(d.calls, fmt.Sprintf("move:%d,%d", dx, dy))
}

func TestInjectorTranslatesClickAndMove(t *testing.T) {
	driver := &recordingDriver{}
	injector := &robotInjector{driver: driver}

	err := injector.WriteEvents(
		autoclicker.Event{Type: autoclicker.EventTypeRel, Code: autoclicker.RelXCode, Value: 5},
		autoclicker.Event{Type: autoclicker.EventTypeRel, Code: autoclicker.RelYCode, Value: -3},
		autoclicker.Event{Type: autoclicker.EventTypeSyn, Code: autoclicker.SynReportCode},
		autoclicker.Event{Type: autoclicker.EventTypeKey, Code: autoclicker.MiddleButtonCode, Value: 1},
		autoclicker.Event{Type: autoclicker.EventTypeKey, Code: autoclicker.MiddleButtonCode, Value: 0},
	)
	if err != nil {
		t.Fatalf("WriteEvents returned error: %v", err)
	}

	want := []string{"move:5,-3", "center:down", "center:up"}
	if !reflect.DeepEqual(driver.calls, want) {
		t.Fatalf("driver calls = %v, want %v", driver.calls, want)
	}
}

func TestInjectorReportsToggleFailure(t *testing.T) {
	driver := &recordingDriver{toggleErr: errors.New("denied")}
	injector := &robotInjector{driver: driver}

	err := injector.WriteEvents(autoclicker.Event{Type: autoclicker.EventTypeKey, Code: autoclicker.LeftButtonCode, Value: 1})
	if err == nil {
		t.Fatalf("expected toggle failure to surface")
	}
}

func TestButtonNames(t *testing.T) {
	cases := map[uint16]string{
		autoclicker.LeftButtonCode:   "left",
		autoclicker.RightButtonCode:  "right",
		autoclicker.MiddleButtonCode: "center",
	}
	for code, want := range cases {
		if got, ok := buttonName(code); !ok || got != want {
			t.Fatalf("buttonName(%#x)=%q,%v, want %q", code, got, ok, want)
		}
	}
	if _, ok := buttonName(autoclicker.KeyF6Code); ok {
		t.Fatalf("keyboard codes are not buttons")
	}
}

func TestPumpHotkeyForwardsEdges(t *testing.T) {
	down := make(chan struct{}, 1)
	up := make(chan struct{}, 1)
	stop := make(chan struct{})
	values := make(chan int32, 4)
	done := make(chan struct{})

	go func() {
		defer close(done)
		pumpHotkey(stop, down, up, func(value int32) { values <- value })
	}()

	down <- struct{}{}
	if got := <-values; got != 1 {
		t.Fatalf("keydown value = %d, want 1", got)
	}
	up <- struct{}{}
	if got := <-values; got != 0 {
		t.Fatalf("keyup value = %d, want 0", got)
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("pumpHotkey did not return after stop")
	}
}
