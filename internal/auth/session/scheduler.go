package session

import (
	"sync"
	"time"
)

// Timer is the cancellable single-shot timer behind the refresh
// scheduler. Arming always cancels any previously armed timer first, so
// at most one callback is ever pending. Implementations must be safe for
// concurrent use.
type Timer interface {
	Arm(delay time.Duration, fn func())
	Cancel()
}

// afterFuncTimer is the production Timer backed by time.AfterFunc.
type afterFuncTimer struct {
	mu      sync.Mutex
	pending *time.Timer
}

// NewTimer returns a wall-clock Timer.
func NewTimer() Timer {
	return &afterFuncTimer{}
}

func (t *afterFuncTimer) Arm(delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending != nil {
		t.pending.Stop()
	}
	t.pending = time.AfterFunc(delay, fn)
}

func (t *afterFuncTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
