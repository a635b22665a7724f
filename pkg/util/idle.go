// Package util holds small concurrency helpers.
package util

import (
	"sync"
	"time"
)

// IdleTimer signals once when no activity has been recorded for a whole
// timeout. Touch records activity and pushes the deadline back.
//
// A zero or negative timeout disables the timer: Expired never fires.
//
//	idle := NewIdleTimer(2 * time.Minute)
//	defer idle.Stop()
//
//	for {
//	    select {
//	    case ev := <-events:
//	        idle.Touch()
//	        handle(ev)
//	    case <-idle.Expired():
//	        return errInactive
//	    }
//	}
type IdleTimer struct {
	mu      sync.Mutex
	timeout time.Duration
	timer   *time.Timer
	expired chan struct{}
	fired   bool
	stopped bool
}

// NewIdleTimer starts an idle timer with the given timeout.
func NewIdleTimer(timeout time.Duration) *IdleTimer {
	t := &IdleTimer{
		timeout: timeout,
		expired: make(chan struct{}),
	}
	if timeout > 0 {
		t.timer = time.AfterFunc(timeout, t.fire)
	}
	return t
}

func (t *IdleTimer) fire() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.fired {
		return
	}
	t.fired = true
	close(t.expired)
}

// Touch records activity. It is a no-op once the timer has fired or stopped.
func (t *IdleTimer) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer == nil || t.stopped || t.fired {
		return
	}
	t.timer.Reset(t.timeout)
}

// Expired is closed when the timeout elapses without a Touch.
func (t *IdleTimer) Expired() <-chan struct{} {
	return t.expired
}

// Stop disarms the timer. Safe to call more than once.
func (t *IdleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}
