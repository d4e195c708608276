package autoclicker

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// worker is the Idle/Running loop shared by both generators. The enabled flag
// and the counter are the only state touched from outside the loop goroutine.
type worker struct {
	name     string
	logger   Logger
	injector Injector

	enabled atomic.Bool
	stopped atomic.Bool
	count   atomic.Uint64

	wakeCh    chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once

	tick  func() bool
	delay func() time.Duration
	idle  func()

	listenersMu    sync.Mutex
	stateListeners []func(enabled bool)
	errorListeners []func(err error)
}

func newWorker(name string, injector Injector, logger Logger) *worker {
	return &worker{
		name:     name,
		logger:   logger,
		injector: injector,
		wakeCh:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the loop goroutine. Calling it more than once is a no-op.
func (w *worker) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

// Stop ends the loop and waits for it to exit.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.stopped.Store(true)
		w.enabled.Store(false)
		close(w.stopCh)

		started := true
		w.startOnce.Do(func() { started = false })
		if started {
			<-w.doneCh
		}
		if w.idle != nil {
			w.idle()
		}
	})
}

func (w *worker) SetEnabled(enabled bool) {
	if w.stopped.Load() {
		return
	}
	if w.enabled.Swap(enabled) == enabled {
		return
	}
	w.stateChanged(enabled)
}

// Toggle flips the run state and returns the new value.
func (w *worker) Toggle() bool {
	if w.stopped.Load() {
		return false
	}
	for {
		current := w.enabled.Load()
		if w.enabled.CompareAndSwap(current, !current) {
			w.stateChanged(!current)
			return !current
		}
	}
}

func (w *worker) IsEnabled() bool {
	return w.enabled.Load()
}

func (w *worker) Count() uint64 {
	return w.count.Load()
}

func (w *worker) ResetCount() {
	w.count.Store(0)
}

// OnStateChange registers fn to run on every Idle/Running transition.
func (w *worker) OnStateChange(fn func(enabled bool)) {
	if fn == nil {
		return
	}
	w.listenersMu.Lock()
	w.stateListeners = append(w.stateListeners, fn)
	w.listenersMu.Unlock()
}

// OnError registers fn to receive errors from skipped ticks.
func (w *worker) OnError(fn func(err error)) {
	if fn == nil {
		return
	}
	w.listenersMu.Lock()
	w.errorListeners = append(w.errorListeners, fn)
	w.listenersMu.Unlock()
}

func (w *worker) stateChanged(enabled bool) {
	if enabled {
		w.logger.Info("Generator running", "generator", w.name)
	} else {
		w.logger.Info("Generator idle", "generator", w.name, "count", w.count.Load())
	}
	w.signalWake()

	w.listenersMu.Lock()
	listeners := make([]func(bool), len(w.stateListeners))
	copy(listeners, w.stateListeners)
	w.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(enabled)
	}
}

func (w *worker) reportError(err error) {
	w.logger.Warn("Skipped tick", "generator", w.name, "err", err)

	w.listenersMu.Lock()
	listeners := make([]func(error), len(w.errorListeners))
	copy(listeners, w.errorListeners)
	w.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(err)
	}
}

func (w *worker) run() {
	defer close(w.doneCh)

	wasEnabled := false
	var next time.Time
	for {
		if !w.enabled.Load() {
			if wasEnabled && w.idle != nil {
				w.idle()
			}
			wasEnabled = false
			if !w.waitWithWake(0) {
				return
			}
			continue
		}
		wasEnabled = true

		// Re-enabling resumes the cadence; it never shortens the gap since
		// the previous tick.
		if time.Now().Before(next) {
			if !w.waitUntil(next) {
				return
			}
			continue
		}

		w.drainWake()
		started := time.Now()
		if !w.tick() {
			return
		}
		next = started.Add(w.delay())
	}
}

// waitUntil blocks until deadline. Wake signals end the wait early only once
// the generator has gone idle.
func (w *worker) waitUntil(deadline time.Time) bool {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return !w.stopRequested()
		}
		if !w.waitWithWake(remaining) {
			return false
		}
		if !w.enabled.Load() {
			return true
		}
	}
}

// waitWithWake blocks for d (forever when d <= 0) or until a wake signal. It
// returns false once Stop has been called.
func (w *worker) waitWithWake(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-w.stopCh:
			return false
		case <-w.wakeCh:
			return true
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-w.stopCh:
		return false
	case <-w.wakeCh:
		return true
	case <-timer.C:
		return true
	}
}

// sleepWithStop waits d without reacting to wake signals, so a toggle cannot
// cut a button hold short.
func (w *worker) sleepWithStop(d time.Duration) bool {
	if d <= 0 {
		return !w.stopRequested()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-w.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func (w *worker) signalWake() {
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

func (w *worker) drainWake() {
	select {
	case <-w.wakeCh:
	default:
	}
}

func (w *worker) stopRequested() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

// inject writes events, retrying once before giving up on this tick.
func (w *worker) inject(events ...Event) error {
	err := w.injector.WriteEvents(events...)
	if err == nil {
		return nil
	}
	w.logger.Debug("Injection failed, retrying", "generator", w.name, "err", err)
	if err := w.injector.WriteEvents(events...); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInputInjection, w.name, err)
	}
	return nil
}

func tickDelay(intervalMS int, jitterEnabled bool, jitterRangeMS int, rng *rand.Rand) time.Duration {
	ms := intervalMS
	if jitterEnabled && jitterRangeMS > 0 {
		ms += rng.Intn(jitterRangeMS + 1)
	}
	return time.Duration(ms) * time.Millisecond
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
