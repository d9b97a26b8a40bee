// Package lock provides the exclusive lock, condition variable and counting
// semaphore of rtsync.
//
// Mutex and Cond forward every call to the host primitive and return its
// status unchanged. Semaphore is a monitor built from one of each.
package lock

import "github.com/kolkov/rtsync/internal/rtsync/native"

// Mutex is an exclusive lock.
type Mutex struct {
	m native.Mutex
}

// NewMutex creates a mutex on host h.
func NewMutex(h native.Host) (*Mutex, error) {
	m, err := h.NewMutex()
	if err != nil {
		return nil, err
	}
	return &Mutex{m: m}, nil
}

// Lock blocks until the mutex is acquired.
func (m *Mutex) Lock() error { return m.m.Lock() }

// TryLock returns native.ErrBusy when the mutex is held.
func (m *Mutex) TryLock() error { return m.m.TryLock() }

// Unlock releases the mutex. Unlocking a mutex the caller does not hold is a
// precondition violation.
func (m *Mutex) Unlock() error { return m.m.Unlock() }

// Destroy releases the mutex. It must be called exactly once, by the sole
// owner, when no other goroutine can still use it.
func (m *Mutex) Destroy() error { return m.m.Destroy() }
