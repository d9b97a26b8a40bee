package lock

import (
	"errors"

	"github.com/kolkov/rtsync/internal/rtsync/check"
	"github.com/kolkov/rtsync/internal/rtsync/native"
)

// Semaphore is a counting semaphore whose count never goes below zero.
//
// count is only read or written with lock held.
type Semaphore struct {
	lock    *Mutex
	notZero *Cond
	count   int

	checker *check.Checker
}

// NewSemaphore creates a semaphore holding initial permits. c may be nil.
func NewSemaphore(h native.Host, initial int, c *check.Checker) (*Semaphore, error) {
	if initial < 0 {
		return nil, native.InvalidArgument("sema.create")
	}

	m, err := NewMutex(h)
	if err != nil {
		return nil, err
	}
	cv, err := NewCond(h)
	if err != nil {
		// Roll back the mutex; report the creation error.
		_ = m.Destroy()
		return nil, err
	}

	return &Semaphore{
		lock:    m,
		notZero: cv,
		count:   initial,
		checker: c,
	}, nil
}

// Wait blocks until a permit is available and takes it.
func (s *Semaphore) Wait() error {
	if err := s.lock.Lock(); err != nil {
		return err
	}
	for s.count == 0 {
		if err := s.notZero.Wait(s.lock); err != nil {
			_ = s.lock.Unlock()
			return err
		}
	}
	s.count--
	s.checker.Semaphore("wait", s.count)
	return s.lock.Unlock()
}

// TryWait takes a permit if one is available and returns native.ErrBusy
// otherwise. It never blocks on the condition variable.
func (s *Semaphore) TryWait() error {
	if err := s.lock.Lock(); err != nil {
		return err
	}
	if s.count == 0 {
		if err := s.lock.Unlock(); err != nil {
			return err
		}
		return native.ErrBusy
	}
	s.count--
	s.checker.Semaphore("trywait", s.count)
	return s.lock.Unlock()
}

// Post adds a permit and wakes one waiter.
func (s *Semaphore) Post() error {
	if err := s.lock.Lock(); err != nil {
		return err
	}
	s.count++
	s.checker.Semaphore("post", s.count)
	if err := s.notZero.Signal(); err != nil {
		_ = s.lock.Unlock()
		return err
	}
	return s.lock.Unlock()
}

// Count returns a snapshot of the number of available permits.
func (s *Semaphore) Count() int {
	if err := s.lock.Lock(); err != nil {
		return 0
	}
	n := s.count
	_ = s.lock.Unlock()
	return n
}

// Destroy releases the semaphore's mutex and condition variable. Both are
// always attempted; the result joins their errors.
func (s *Semaphore) Destroy() error {
	return errors.Join(s.notZero.Destroy(), s.lock.Destroy())
}
