// Package rwlock provides the reader/writer lock of rtsync.
//
// Two strategies implement RWLock. Native forwards to the host's own
// reader/writer lock. Fallback builds one from a mutex and two condition
// variables with writer preference: a new reader waits while any writer is
// active or waiting. New picks one of them at build time.
//
// Unlock releases whichever kind of lock the caller holds. Releasing a lock
// the caller does not hold is a precondition violation.
package rwlock

// RWLock is a reader/writer lock.
type RWLock interface {
	// RLock acquires a shared lock.
	RLock() error
	// Lock acquires the exclusive lock.
	Lock() error
	// TryRLock returns native.ErrBusy instead of blocking.
	TryRLock() error
	// TryLock returns native.ErrBusy instead of blocking.
	TryLock() error
	Unlock() error
	Destroy() error
}

// State is a snapshot of a Fallback lock's counters.
type State struct {
	Readers        int
	Writers        int
	WritersWaiting int
}

// Idle reports whether the lock has no holders.
func (s State) Idle() bool {
	return s.Readers == 0 && s.Writers == 0
}

// String names the hold: "exclusive", "shared" or "idle".
func (s State) String() string {
	switch {
	case s.Writers > 0:
		return "exclusive"
	case s.Readers > 0:
		return "shared"
	default:
		return "idle"
	}
}
