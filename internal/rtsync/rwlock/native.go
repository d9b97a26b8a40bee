package rwlock

import "github.com/kolkov/rtsync/internal/rtsync/native"

// Native is the host's own reader/writer lock.
type Native struct {
	rw native.RWLock
}

// NewNative creates a Native lock. It fails with a *native.LockError on
// hosts without a reader/writer lock.
func NewNative(h native.Host) (*Native, error) {
	rw, err := h.NewRWLock()
	if err != nil {
		return nil, err
	}
	return &Native{rw: rw}, nil
}

// RLock acquires the lock shared.
func (l *Native) RLock() error { return l.rw.RLock() }

// Lock acquires the lock exclusively.
func (l *Native) Lock() error { return l.rw.Lock() }

// TryRLock acquires the lock shared or returns native.ErrBusy.
func (l *Native) TryRLock() error { return l.rw.TryRLock() }

// TryLock acquires the lock exclusively or returns native.ErrBusy.
func (l *Native) TryLock() error { return l.rw.TryLock() }

// Unlock releases whichever hold the caller has.
func (l *Native) Unlock() error { return l.rw.Unlock() }

// Destroy releases the lock. It must not be held.
func (l *Native) Destroy() error { return l.rw.Destroy() }
