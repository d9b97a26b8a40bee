package rwlock

import (
	"errors"

	"github.com/kolkov/rtsync/internal/rtsync/check"
	"github.com/kolkov/rtsync/internal/rtsync/lock"
	"github.com/kolkov/rtsync/internal/rtsync/native"
)

// Fallback is the reader/writer lock built from lock primitives.
//
// Invariants, with mu held: writers <= 1; readers > 0 implies writers == 0.
// writersWaiting only decides which condition Unlock wakes.
type Fallback struct {
	mu        *lock.Mutex
	readersOK *lock.Cond
	writersOK *lock.Cond

	readers        int
	writers        int
	writersWaiting int

	checker *check.Checker
}

// NewFallback creates a Fallback lock on host h. c may be nil.
func NewFallback(h native.Host, c *check.Checker) (*Fallback, error) {
	mu, err := lock.NewMutex(h)
	if err != nil {
		return nil, err
	}
	readersOK, err := lock.NewCond(h)
	if err != nil {
		_ = mu.Destroy()
		return nil, err
	}
	writersOK, err := lock.NewCond(h)
	if err != nil {
		_ = readersOK.Destroy()
		_ = mu.Destroy()
		return nil, err
	}

	return &Fallback{
		mu:        mu,
		readersOK: readersOK,
		writersOK: writersOK,
		checker:   c,
	}, nil
}

// RLock waits while a writer holds the lock or is waiting for it.
func (l *Fallback) RLock() error {
	if err := l.mu.Lock(); err != nil {
		return err
	}
	for l.writers > 0 || l.writersWaiting > 0 {
		if err := l.readersOK.Wait(l.mu); err != nil {
			_ = l.mu.Unlock()
			return err
		}
	}
	l.readers++
	l.observe("rdlock")
	return l.mu.Unlock()
}

// TryRLock applies the RLock guard without waiting.
func (l *Fallback) TryRLock() error {
	if err := l.mu.Lock(); err != nil {
		return err
	}
	if l.writers > 0 || l.writersWaiting > 0 {
		return l.busy()
	}
	l.readers++
	l.observe("tryrdlock")
	return l.mu.Unlock()
}

// Lock waits while the lock has any holder, counting itself as a waiting
// writer for the duration.
func (l *Fallback) Lock() error {
	if err := l.mu.Lock(); err != nil {
		return err
	}
	for l.writers > 0 || l.readers > 0 {
		l.writersWaiting++
		l.observe("wrlock.wait")
		err := l.writersOK.Wait(l.mu)
		l.writersWaiting--
		if err != nil {
			_ = l.mu.Unlock()
			return err
		}
	}
	l.writers = 1
	l.observe("wrlock")
	return l.mu.Unlock()
}

// TryLock applies the Lock guard without waiting. It does not count as a
// waiting writer, so it never holds back readers.
func (l *Fallback) TryLock() error {
	if err := l.mu.Lock(); err != nil {
		return err
	}
	if l.writers > 0 || l.readers > 0 {
		return l.busy()
	}
	l.writers = 1
	l.observe("trywrlock")
	return l.mu.Unlock()
}

// Unlock releases a read lock if any readers are recorded and the write
// lock otherwise. It then wakes one waiting writer, or all waiting readers
// if no writer is waiting.
func (l *Fallback) Unlock() error {
	if err := l.mu.Lock(); err != nil {
		return err
	}
	if l.readers > 0 {
		l.readers--
	} else {
		l.writers--
	}
	l.observe("unlock")

	var err error
	if l.writersWaiting > 0 {
		err = l.writersOK.Signal()
	} else {
		err = l.readersOK.Broadcast()
	}
	if err != nil {
		_ = l.mu.Unlock()
		return err
	}
	return l.mu.Unlock()
}

// Destroy releases the mutex and both condition variables. All three are
// attempted; the result joins their errors.
func (l *Fallback) Destroy() error {
	return errors.Join(
		l.readersOK.Destroy(),
		l.writersOK.Destroy(),
		l.mu.Destroy(),
	)
}

// State returns a snapshot of the counters.
func (l *Fallback) State() State {
	if err := l.mu.Lock(); err != nil {
		return State{}
	}
	s := State{
		Readers:        l.readers,
		Writers:        l.writers,
		WritersWaiting: l.writersWaiting,
	}
	_ = l.mu.Unlock()
	return s
}

func (l *Fallback) busy() error {
	if err := l.mu.Unlock(); err != nil {
		return err
	}
	return native.ErrBusy
}

func (l *Fallback) observe(op string) {
	l.checker.RWLock(op, l.readers, l.writers, l.writersWaiting)
}
