package robotinput

import (
	"fmt"

	"github.com/sakura6264/mourse/internal/core/autoclicker"
)

// pointerDriver is the slice of robotgo the injector needs.
type pointerDriver interface {
	Toggle(button string, down bool) error
	MoveRelative(dx, dy int)
}

type robotInjector struct {
	driver pointerDriver
}

func (i *robotInjector) WriteEvents(events ...autoclicker.Event) error {
	var moveX, moveY int

	flushMove := func() {
		if moveX == 0 && moveY == 0 {
			return
		}
		i.driver.MoveRelative(moveX, moveY)
		moveX = 0
		moveY = 0
	}

	for _, event := range events {
		switch event.Type {
		case autoclicker.EventTypeRel:
			switch event.Code {
			case autoclicker.RelXCode:
				moveX += int(event.Value)
			case autoclicker.RelYCode:
				moveY += int(event.Value)
			}
		case autoclicker.EventTypeSyn:
			if event.Code == autoclicker.SynReportCode {
				flushMove()
			}
		case autoclicker.EventTypeKey:
			name, ok := buttonName(event.Code)
			if !ok || (event.Value != 0 && event.Value != 1) {
				continue
			}
			flushMove()
			if err := i.driver.Toggle(name, event.Value == 1); err != nil {
				return fmt.Errorf("toggle %s: %w", name, err)
			}
		}
	}
	flushMove()
	return nil
}

func (i *robotInjector) Close() error {
	return nil
}

// buttonName maps input button codes to robotgo button names.
func buttonName(code uint16) (string, bool) {
	switch code {
	case autoclicker.LeftButtonCode:
		return "left", true
	case autoclicker.RightButtonCode:
		return "right", true
	case autoclicker.MiddleButtonCode:
		return "center", true
	default:
		return "", false
	}
}

func toggleDirection(down bool) string {
	if down {
		return "down"
	}
	return "up"
}

// pumpHotkey forwards press and release notifications as key values until
// stop closes or both channels close.
func pumpHotkey[T any](stop <-chan struct{}, down, up <-chan T, submit func(value int32)) {
	for down != nil || up != nil {
		select {
		case <-stop:
			return
		case _, ok := <-down:
			if !ok {
				down = nil
				continue
			}
			submit(1)
		case _, ok := <-up:
			if !ok {
				up = nil
				continue
			}
			submit(0)
		}
	}
}
