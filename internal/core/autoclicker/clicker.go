package autoclicker

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

// ClickGenerator presses and releases the configured button once per tick
// while running.
type ClickGenerator struct {
	*worker

	settings  *SettingsStore
	clickDown time.Duration
	rng       *rand.Rand

	// held is the BTN_* code currently pressed by us, 0 when none.
	held atomic.Uint32
}

func NewClickGenerator(settings *SettingsStore, clickDown time.Duration, injector Injector, logger Logger) (*ClickGenerator, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings store is nil")
	}
	if injector == nil {
		return nil, fmt.Errorf("injector is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if clickDown < 0 {
		clickDown = 0
	}

	g := &ClickGenerator{
		worker:    newWorker("click", injector, logger),
		settings:  settings,
		clickDown: clickDown,
		rng:       newRand(),
	}
	g.tick = g.clickOnce
	g.delay = g.nextDelay
	g.idle = g.releaseHeld
	return g, nil
}

func (g *ClickGenerator) clickOnce() bool {
	code := g.settings.Click().Button.Code()

	if g.clickDown == 0 {
		if err := g.inject(
			Event{Type: EventTypeKey, Code: code, Value: 1},
			Event{Type: EventTypeSyn, Code: SynReportCode, Value: 0},
			Event{Type: EventTypeKey, Code: code, Value: 0},
			Event{Type: EventTypeSyn, Code: SynReportCode, Value: 0},
		); err != nil {
			g.reportError(err)
			return true
		}
		g.count.Add(1)
		return true
	}

	if err := g.inject(
		Event{Type: EventTypeKey, Code: code, Value: 1},
		Event{Type: EventTypeSyn, Code: SynReportCode, Value: 0},
	); err != nil {
		g.reportError(err)
		return true
	}
	g.held.Store(uint32(code))

	ok := g.sleepWithStop(g.clickDown)
	if err := g.release(code); err != nil {
		g.reportError(err)
		return ok
	}
	g.count.Add(1)
	return ok
}

func (g *ClickGenerator) release(code uint16) error {
	if err := g.inject(
		Event{Type: EventTypeKey, Code: code, Value: 0},
		Event{Type: EventTypeSyn, Code: SynReportCode, Value: 0},
	); err != nil {
		return err
	}
	g.held.CompareAndSwap(uint32(code), 0)
	return nil
}

// releaseHeld lets go of a button left down by a failed release.
func (g *ClickGenerator) releaseHeld() {
	code := uint16(g.held.Load())
	if code == 0 {
		return
	}
	if err := g.release(code); err != nil {
		g.logger.Warn("Failed to release held button", "code", code, "err", err)
	}
}

func (g *ClickGenerator) nextDelay() time.Duration {
	s := g.settings.Click()
	return tickDelay(s.IntervalMS, s.JitterEnabled, s.JitterRangeMS, g.rng)
}
