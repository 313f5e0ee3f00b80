package utils

import (
	"sync"
	"time"
)

// Timer is a cancellable single-slot timer. Scheduling replaces whatever was
// pending, so at most one callback is ever armed per Timer. A callback only
// fires if it is still the current slot when its deadline passes.
type Timer struct {
	mutex      sync.Mutex
	timer      *time.Timer
	generation uint64
	lastFired  time.Time
}

// Schedule arms fn to run after d, cancelling any pending callback.
func (t *Timer) Schedule(d time.Duration, fn func()) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.generation++
	gen := t.generation
	t.timer = time.AfterFunc(d, func() {
		t.mutex.Lock()
		if gen != t.generation {
			// superseded between expiry and lock acquisition
			t.mutex.Unlock()
			return
		}
		t.timer = nil
		t.lastFired = time.Now()
		t.mutex.Unlock()
		fn()
	})
}

// Cancel drops the pending callback, if any. It reports whether one was pending.
func (t *Timer) Cancel() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	t.generation++
	return true
}

// Pending reports whether a callback is armed.
func (t *Timer) Pending() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.timer != nil
}

// LastFired returns when the last callback ran.
func (t *Timer) LastFired() time.Time {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.lastFired
}
