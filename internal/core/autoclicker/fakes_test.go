package autoclicker

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var errInjectDenied = errors.New("injection denied")

type recordingInjector struct {
	mu       sync.Mutex
	events   []Event
	writes   []time.Time
	failNext int
	closed   bool
}

func (r *recordingInjector) WriteEvents(events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext > 0 {
		r.failNext--
		return errInjectDenied
	}
	r.events = append(r.events, events...)
	r.writes = append(r.writes, time.Now())
	return nil
}

func (r *recordingInjector) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingInjector) failWrites(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = n
}

func (r *recordingInjector) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingInjector) writeTimes() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Time, len(r.writes))
	copy(out, r.writes)
	return out
}

func (r *recordingInjector) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func newTestStore(t *testing.T) *SettingsStore {
	t.Helper()
	store, err := NewSettingsStore(DefaultClickSettings(), DefaultMoveSettings())
	if err != nil {
		t.Fatalf("NewSettingsStore() error = %v", err)
	}
	return store
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func assertReleaseSuffix(t *testing.T, events []Event, code uint16) {
	t.Helper()
	if len(events) < 2 {
		t.Fatalf("expected at least 2 events, got %d", len(events))
	}
	up := events[len(events)-2]
	syn := events[len(events)-1]
	if up != (Event{Type: EventTypeKey, Code: code, Value: 0}) {
		t.Fatalf("unexpected release event: %#v", up)
	}
	if syn != (Event{Type: EventTypeSyn, Code: SynReportCode, Value: 0}) {
		t.Fatalf("unexpected sync event: %#v", syn)
	}
}
