// Package lifecycle tracks whether the process has finished starting up.
package lifecycle

import (
	"errors"
	"sync"
)

// ErrStarting is reported by Err before MarkReady or MarkFailed is called
var ErrStarting = errors.New("service is still starting")

// Lifecycle records whether startup (database open, schema applied) has completed.
// It is safe for concurrent use. The zero value is "starting".
type Lifecycle struct {
	mu    sync.RWMutex
	ready bool
	err   error
}

// New returns a Lifecycle in the starting state
func New() *Lifecycle {
	return &Lifecycle{}
}

// MarkReady flips the lifecycle to ready and clears any earlier failure
func (l *Lifecycle) MarkReady() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ready = true
	l.err = nil
}

// MarkFailed records a startup failure; the lifecycle stays not ready
func (l *Lifecycle) MarkFailed(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ready = false
	l.err = err
}

// Ready reports whether the service can accept queries
func (l *Lifecycle) Ready() bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ready
}

// Err returns nil when ready, the recorded failure, or ErrStarting
func (l *Lifecycle) Err() error {
	if l == nil {
		return ErrStarting
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.ready {
		return nil
	}
	if l.err != nil {
		return l.err
	}
	return ErrStarting
}
