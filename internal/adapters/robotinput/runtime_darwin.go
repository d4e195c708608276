//go:build darwin

package robotinput

import (
	"fmt"
	"sync"

	"github.com/sakura6264/mourse/internal/core/autoclicker"

	"github.com/go-vgo/robotgo"
	"golang.design/x/hotkey"
)

// toggleMouse is swapped out in tests.
var toggleMouse = robotgo.Toggle

type robotgoDriver struct{}

func (robotgoDriver) Toggle(button string, down bool) error {
	return toggleMouse(button, toggleDirection(down))
}

func (robotgoDriver) MoveRelative(dx, dy int) {
	robotgo.MoveRelative(dx, dy)
}

var hotkeyKeys = map[uint16]hotkey.Key{
	autoclicker.KeyF6Code: hotkey.KeyF6,
	autoclicker.KeyF7Code: hotkey.KeyF7,
}

// Runtime registers F6/F7 as system hotkeys and injects input through
// robotgo. Hotkey events are delivered on the main run loop, so the process
// must run fyne or mainthread.Init.
type Runtime struct {
	controller *autoclicker.Controller
	logger     autoclicker.Logger

	mu         sync.Mutex
	registered []*hotkey.Hotkey

	stopOnce sync.Once
	stopCh   chan struct{}
	pumpsWG  sync.WaitGroup
}

func NewRuntime(cfg autoclicker.Config, logger autoclicker.Logger) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	controller, err := autoclicker.NewController(cfg, &robotInjector{driver: robotgoDriver{}}, logger)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		controller: controller,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}, nil
}

func (r *Runtime) Start() error {
	r.controller.Start()

	hotkeys := r.controller.Hotkeys()
	for _, id := range []autoclicker.HotkeyID{autoclicker.HotkeyClick, autoclicker.HotkeyMove} {
		code, ok := hotkeys.CodeFor(id)
		if !ok {
			continue
		}
		key, ok := hotkeyKeys[code]
		if !ok {
			_ = hotkeys.MarkFailed(id, fmt.Errorf("key code %d has no macOS hotkey", code))
			continue
		}

		hk := hotkey.New(nil, key)
		if err := hk.Register(); err != nil {
			_ = hotkeys.MarkFailed(id, err)
			continue
		}

		r.mu.Lock()
		r.registered = append(r.registered, hk)
		r.mu.Unlock()

		r.pumpsWG.Add(1)
		go func(code uint16, hk *hotkey.Hotkey) {
			defer r.pumpsWG.Done()
			pumpHotkey(r.stopCh, hk.Keydown(), hk.Keyup(), func(value int32) {
				r.controller.SubmitKey(globalSourceIdentity, code, value)
			})
		}(code, hk)
	}
	return nil
}

func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.pumpsWG.Wait()

		r.mu.Lock()
		for _, hk := range r.registered {
			if err := hk.Unregister(); err != nil {
				r.logger.Warn("Failed to unregister hotkey", "err", err)
			}
		}
		r.registered = nil
		r.mu.Unlock()

		r.controller.Stop()
	})
}

func (r *Runtime) Controller() *autoclicker.Controller {
	return r.controller
}

func ListInputDevices() ([]DeviceInfo, error) {
	return []DeviceInfo{
		{
			Path:      globalSourceIdentity,
			Name:      "macOS Global Input",
			IsPointer: true,
		},
	}, nil
}
