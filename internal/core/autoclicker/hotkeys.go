package autoclicker

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

type HotkeyID int

const (
	HotkeyClick HotkeyID = iota
	HotkeyMove
)

func (id HotkeyID) String() string {
	switch id {
	case HotkeyClick:
		return "click"
	case HotkeyMove:
		return "move"
	default:
		return fmt.Sprintf("hotkey(%d)", int(id))
	}
}

// DefaultBindings are the fixed global hotkeys.
var DefaultBindings = map[HotkeyID]uint16{
	HotkeyClick: KeyF6Code,
	HotkeyMove:  KeyF7Code,
}

const DefaultHotkeyDebounce = 200 * time.Millisecond

type HotkeyEvent struct {
	ID   HotkeyID
	Code uint16
}

type keyState struct {
	source string
	code   uint16
}

// Dispatcher turns raw key events from any number of sources into hotkey
// down-edges and fans them out to subscribers.
type Dispatcher struct {
	logger   Logger
	debounce time.Duration
	now      func() time.Time

	mu          sync.Mutex
	bindings    map[uint16]HotkeyID
	codes       map[HotkeyID]uint16
	down        map[keyState]bool
	lastFire    map[HotkeyID]time.Time
	failed      map[HotkeyID]error
	// lastRelease tells X11 style autorepeat, which arrives as
	// release/press pairs, apart from a fresh press.
	lastRelease map[keyState]time.Time

	subsMu sync.Mutex
	nextID int
	subs   map[int]func(HotkeyEvent)
}

func NewDispatcher(bindings map[HotkeyID]uint16, debounce time.Duration, logger Logger) (*Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if len(bindings) == 0 {
		bindings = DefaultBindings
	}
	if debounce < 0 {
		debounce = 0
	}

	byCode := make(map[uint16]HotkeyID, len(bindings))
	codes := make(map[HotkeyID]uint16, len(bindings))
	for id, code := range bindings {
		if other, ok := byCode[code]; ok {
			return nil, fmt.Errorf("hotkeys %s and %s share key code %d", other, id, code)
		}
		byCode[code] = id
		codes[id] = code
	}

	return &Dispatcher{
		logger:      logger,
		debounce:    debounce,
		now:         time.Now,
		bindings:    byCode,
		codes:       codes,
		down:        make(map[keyState]bool),
		lastFire:    make(map[HotkeyID]time.Time),
		failed:      make(map[HotkeyID]error),
		lastRelease: make(map[keyState]time.Time),
		subs:        make(map[int]func(HotkeyEvent)),
	}, nil
}

// Subscribe registers fn for hotkey down-edges. The returned func removes it.
func (d *Dispatcher) Subscribe(fn func(HotkeyEvent)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	d.subsMu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[id] = fn
	d.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.subsMu.Lock()
			delete(d.subs, id)
			d.subsMu.Unlock()
		})
	}
}

// Codes returns the bound key codes in ascending order.
func (d *Dispatcher) Codes() []uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	codes := make([]uint16, 0, len(d.bindings))
	for code := range d.bindings {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func (d *Dispatcher) CodeFor(id HotkeyID) (uint16, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	code, ok := d.codes[id]
	return code, ok
}

func (d *Dispatcher) IsBound(code uint16) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.bindings[code]
	return ok
}

// MarkFailed records that the platform could not register id. The hotkey then
// stays inactive for the rest of the process.
func (d *Dispatcher) MarkFailed(id HotkeyID, cause error) error {
	err := fmt.Errorf("%w: %s hotkey: %v", ErrHotkeyRegistration, id, cause)
	d.mu.Lock()
	if _, ok := d.failed[id]; !ok {
		d.failed[id] = err
	}
	d.mu.Unlock()
	d.logger.Error("Hotkey unavailable", "hotkey", id.String(), "err", cause)
	return err
}

func (d *Dispatcher) Failures() map[HotkeyID]error {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[HotkeyID]error, len(d.failed))
	for id, err := range d.failed {
		out[id] = err
	}
	return out
}

// HandleKey consumes one EV_KEY event. value is 1 for press, 2 for autorepeat
// and 0 for release. A press arriving within the debounce window of the same
// key's release counts as autorepeat. It reports whether the event was a
// bound hotkey code.
func (d *Dispatcher) HandleKey(source string, code uint16, value int32) bool {
	d.mu.Lock()
	id, ok := d.bindings[code]
	if !ok {
		d.mu.Unlock()
		return false
	}

	key := keyState{source: source, code: code}
	switch value {
	case 0:
		if d.down[key] {
			d.lastRelease[key] = d.now()
		}
		delete(d.down, key)
		d.mu.Unlock()
		return true
	case 1:
	default:
		d.mu.Unlock()
		return true
	}

	if d.down[key] {
		d.mu.Unlock()
		return true
	}
	d.down[key] = true

	if _, failed := d.failed[id]; failed {
		d.mu.Unlock()
		return true
	}

	now := d.now()
	if released, ok := d.lastRelease[key]; ok && d.debounce > 0 && now.Sub(released) < d.debounce {
		d.mu.Unlock()
		d.logger.Debug("Hotkey autorepeat ignored", "hotkey", id.String())
		return true
	}
	if last, ok := d.lastFire[id]; ok && d.debounce > 0 && now.Sub(last) < d.debounce {
		d.mu.Unlock()
		d.logger.Debug("Hotkey debounced", "hotkey", id.String())
		return true
	}
	d.lastFire[id] = now
	d.mu.Unlock()

	d.publish(HotkeyEvent{ID: id, Code: code})
	return true
}

// Reset forgets held keys, e.g. after a source device is reopened.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	d.down = make(map[keyState]bool)
	d.lastRelease = make(map[keyState]time.Time)
	d.mu.Unlock()
}

func (d *Dispatcher) publish(event HotkeyEvent) {
	d.subsMu.Lock()
	ids := make([]int, 0, len(d.subs))
	for id := range d.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(HotkeyEvent), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, d.subs[id])
	}
	d.subsMu.Unlock()

	d.logger.Debug("Hotkey pressed", "hotkey", event.ID.String(), "code", event.Code)
	for _, fn := range subs {
		fn(event)
	}
}
