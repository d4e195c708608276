//go:build linux

package linuxinput

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/sakura6264/mourse/internal/core/autoclicker"

	evdev "github.com/holoplot/go-evdev"
)

const injectorDeviceName = "mourse"

// Runtime reads F6/F7 from keyboards via evdev and injects clicks and motion
// through a uinput device. It works on Wayland and on the console.
type Runtime struct {
	sourceDevices []*evdev.InputDevice
	controller    *autoclicker.Controller
	logger        autoclicker.Logger

	stopCh    chan struct{}
	stopOnce  sync.Once
	readersWG sync.WaitGroup
}

type evdevInjector struct {
	dev *evdev.InputDevice
}

func (e *evdevInjector) WriteEvents(events ...autoclicker.Event) error {
	for _, event := range events {
		ev := evdev.InputEvent{
			Type:  evdev.EvType(event.Type),
			Code:  evdev.EvCode(event.Code),
			Value: event.Value,
		}
		if err := e.dev.WriteOne(&ev); err != nil {
			return err
		}
	}
	return nil
}

func (e *evdevInjector) Close() error {
	if e.dev == nil {
		return nil
	}
	return e.dev.Close()
}

// InjectorCapabilities lists what the virtual pointer device can emit.
func InjectorCapabilities() map[evdev.EvType][]evdev.EvCode {
	return map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: {evdev.BTN_LEFT, evdev.BTN_RIGHT, evdev.BTN_MIDDLE},
		evdev.EV_REL: {evdev.REL_X, evdev.REL_Y},
	}
}

func NewRuntime(selection *SourceSelection, cfg autoclicker.Config, logger autoclicker.Logger) (*Runtime, error) {
	if selection == nil {
		return nil, fmt.Errorf("source selection is nil")
	}
	if len(selection.Devices) == 0 {
		return nil, fmt.Errorf("source selection has no devices")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	id := evdev.InputID{
		BusType: uint16(evdev.BUS_VIRTUAL),
		Vendor:  0x1,
		Product: 0x1,
		Version: 1,
	}
	injectorDev, err := evdev.CreateDevice(injectorDeviceName, id, InjectorCapabilities())
	if err != nil {
		return nil, fmt.Errorf("failed to create uinput device: %w", err)
	}
	injector := &evdevInjector{dev: injectorDev}

	controller, err := autoclicker.NewController(cfg, injector, logger)
	if err != nil {
		_ = injector.Close()
		return nil, err
	}

	hotkeys := controller.Hotkeys()
	for _, id := range []autoclicker.HotkeyID{autoclicker.HotkeyClick, autoclicker.HotkeyMove} {
		code, ok := hotkeys.CodeFor(id)
		if !ok {
			continue
		}
		if len(selection.HotkeyPaths[code]) == 0 {
			hotkeys.MarkFailed(id, fmt.Errorf("no readable keyboard exposes %s", FormatCodeName(code)))
		}
	}

	return &Runtime{
		sourceDevices: selection.Devices,
		controller:    controller,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}, nil
}

func (r *Runtime) Start() error {
	for _, dev := range r.sourceDevices {
		if err := dev.NonBlock(); err != nil {
			return fmt.Errorf("failed to set nonblocking mode for %s: %w", dev.Path(), err)
		}
	}

	r.controller.Start()
	for _, dev := range r.sourceDevices {
		r.readersWG.Add(1)
		go r.readLoop(dev)
	}
	return nil
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		for _, dev := range r.sourceDevices {
			_ = dev.Close()
		}
		r.readersWG.Wait()
		r.controller.Stop()
	})
}

func (r *Runtime) Controller() *autoclicker.Controller {
	return r.controller
}

func (r *Runtime) readLoop(dev *evdev.InputDevice) {
	defer r.readersWG.Done()

	path := dev.Path()
	for {
		events, err := dev.ReadSlice(64)
		if err != nil {
			if r.stopped() || isDeviceClosedError(err) {
				return
			}
			if isWouldBlockError(err) {
				if !r.sleepWithStop(10 * time.Millisecond) {
					return
				}
				continue
			}
			r.logger.Warn("Read failed", "path", path, "err", err)
			if !r.sleepWithStop(100 * time.Millisecond) {
				return
			}
			continue
		}

		for _, event := range events {
			if event.Type != evdev.EV_KEY {
				continue
			}
			r.controller.SubmitKey(path, uint16(event.Code), event.Value)
		}
	}
}

func (r *Runtime) stopped() bool {
	select {
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

func (r *Runtime) sleepWithStop(duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-r.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func isDeviceClosedError(err error) bool {
	return errors.Is(err, syscall.EBADF) || errors.Is(err, syscall.ENODEV)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}
