package lock

import (
	"time"

	"github.com/kolkov/rtsync/internal/rtsync/native"
)

// Cond is a condition variable. Every call is made with the paired Mutex
// held, and a Cond is used with one Mutex only.
type Cond struct {
	c native.Cond
}

// NewCond creates a condition variable on host h.
func NewCond(h native.Host) (*Cond, error) {
	c, err := h.NewCond()
	if err != nil {
		return nil, err
	}
	return &Cond{c: c}, nil
}

// Wait atomically releases m, blocks until woken and reacquires m. Callers
// re-check their predicate in a loop.
func (c *Cond) Wait(m *Mutex) error {
	return c.c.Wait(m.m)
}

// TimedWait is Wait bounded by d. It returns native.ErrTimedOut if d elapsed
// without a wakeup. m is held again in either case.
func (c *Cond) TimedWait(m *Mutex, d time.Duration) error {
	return c.c.TimedWait(m.m, time.Now().Add(d))
}

// TimedWaitUntil is TimedWait with an absolute deadline.
func (c *Cond) TimedWaitUntil(m *Mutex, deadline time.Time) error {
	return c.c.TimedWait(m.m, deadline)
}

// Signal wakes one waiter, if any.
func (c *Cond) Signal() error { return c.c.Signal() }

// Broadcast wakes all current waiters.
func (c *Cond) Broadcast() error { return c.c.Broadcast() }

// Destroy releases the condition variable. It fails with a *native.LockError
// while goroutines are waiting on it.
func (c *Cond) Destroy() error { return c.c.Destroy() }
