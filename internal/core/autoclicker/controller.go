package autoclicker

import (
	"fmt"
	"sync"
)

type Status struct {
	ClickEnabled bool
	Clicks       uint64
	MoveEnabled  bool
	Moves        uint64
	HotkeyErrors map[HotkeyID]error
}

// Controller owns the settings, both generators and the hotkey dispatcher.
// Platform runtimes feed it key events and give it an injector.
type Controller struct {
	settings *SettingsStore
	clicker  *ClickGenerator
	mover    *MovementGenerator
	hotkeys  *Dispatcher
	injector *lockedInjector
	logger   Logger

	unsubscribe func()
	stopOnce    sync.Once
}

func NewController(cfg Config, injector Injector, logger Logger) (*Controller, error) {
	if injector == nil {
		return nil, fmt.Errorf("injector is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	click := cfg.Click
	if click == (ClickSettings{}) {
		click = DefaultClickSettings()
	}
	move := cfg.Move
	if move == (MoveSettings{}) {
		move = DefaultMoveSettings()
	}
	settings, err := NewSettingsStore(click, move)
	if err != nil {
		return nil, err
	}

	shared := newLockedInjector(injector)
	clicker, err := NewClickGenerator(settings, cfg.ClickDown, shared, logger)
	if err != nil {
		return nil, err
	}
	mover, err := NewMovementGenerator(settings, shared, logger)
	if err != nil {
		return nil, err
	}
	hotkeys, err := NewDispatcher(DefaultBindings, cfg.HotkeyDebounce, logger)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		settings: settings,
		clicker:  clicker,
		mover:    mover,
		hotkeys:  hotkeys,
		injector: shared,
		logger:   logger,
	}
	c.unsubscribe = hotkeys.Subscribe(c.handleHotkey)
	return c, nil
}

func (c *Controller) Start() {
	c.clicker.Start()
	c.mover.Start()
}

// Stop halts both generators, releases any held button and closes the
// injector.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.unsubscribe()
		c.clicker.Stop()
		c.mover.Stop()
		if err := c.injector.Close(); err != nil {
			c.logger.Warn("Failed to close injector", "err", err)
		}
	})
}

func (c *Controller) Settings() *SettingsStore { return c.settings }

func (c *Controller) Clicker() *ClickGenerator { return c.clicker }

func (c *Controller) Mover() *MovementGenerator { return c.mover }

func (c *Controller) Hotkeys() *Dispatcher { return c.hotkeys }

// SubmitKey forwards a raw EV_KEY event from a platform source.
func (c *Controller) SubmitKey(source string, code uint16, value int32) bool {
	return c.hotkeys.HandleKey(source, code, value)
}

// OnError registers fn for errors from either generator.
func (c *Controller) OnError(fn func(err error)) {
	c.clicker.OnError(fn)
	c.mover.OnError(fn)
}

func (c *Controller) Status() Status {
	return Status{
		ClickEnabled: c.clicker.IsEnabled(),
		Clicks:       c.clicker.Count(),
		MoveEnabled:  c.mover.IsEnabled(),
		Moves:        c.mover.Count(),
		HotkeyErrors: c.hotkeys.Failures(),
	}
}

func (c *Controller) handleHotkey(event HotkeyEvent) {
	switch event.ID {
	case HotkeyClick:
		c.clicker.Toggle()
	case HotkeyMove:
		c.mover.Toggle()
	}
}
