package autoclicker

import "sync"

// lockedInjector serializes writes from both generator loops onto one device.
type lockedInjector struct {
	mu        sync.Mutex
	inner     Injector
	closeOnce sync.Once
	closeErr  error
}

func newLockedInjector(inner Injector) *lockedInjector {
	return &lockedInjector{inner: inner}
}

func (l *lockedInjector) WriteEvents(events ...Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.WriteEvents(events...)
}

func (l *lockedInjector) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.closeErr = l.inner.Close()
	})
	return l.closeErr
}
