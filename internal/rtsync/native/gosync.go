package native

import (
	"sync"
	"sync/atomic"
	"time"
)

// goMutex is the host mutex: a sync.Mutex plus a destroyed flag so that use
// after Destroy surfaces as an invalid-argument status instead of silently
// working.
type goMutex struct {
	mu        sync.Mutex
	destroyed atomic.Bool
}

func newGoMutex() *goMutex {
	return &goMutex{}
}

func (m *goMutex) Lock() error {
	if m.destroyed.Load() {
		return lockError("mutex.lock", statusInvalid)
	}
	m.mu.Lock()
	return nil
}

func (m *goMutex) TryLock() error {
	if m.destroyed.Load() {
		return lockError("mutex.trylock", statusInvalid)
	}
	if !m.mu.TryLock() {
		return ErrBusy
	}
	return nil
}

// Unlock of an unlocked mutex is a fatal runtime error, like the host
// primitive it stands for.
func (m *goMutex) Unlock() error {
	if m.destroyed.Load() {
		return lockError("mutex.unlock", statusInvalid)
	}
	m.mu.Unlock()
	return nil
}

func (m *goMutex) Destroy() error {
	if !m.mu.TryLock() {
		return lockError("mutex.destroy", statusBusy)
	}
	defer m.mu.Unlock()
	if !m.destroyed.CompareAndSwap(false, true) {
		return lockError("mutex.destroy", statusInvalid)
	}
	return nil
}

// goCond is the host condition variable.
//
// Each waiter parks on its own channel, queued FIFO. A waiter enqueues
// before it releases the caller's mutex, so a Signal issued by anyone who
// acquires the mutex afterwards always finds it.
type goCond struct {
	mu        sync.Mutex
	waiters   []chan struct{}
	destroyed bool
}

func newGoCond() *goCond {
	return &goCond{}
}

func (c *goCond) enqueue(op string) (chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return nil, lockError(op, statusInvalid)
	}
	ch := make(chan struct{})
	c.waiters = append(c.waiters, ch)
	return ch, nil
}

// cancel removes ch from the queue. It reports false if ch was already
// dequeued by Signal or Broadcast, i.e. the wakeup belongs to this waiter.
func (c *goCond) cancel(ch chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}

func (c *goCond) Wait(m Mutex) error {
	ch, err := c.enqueue("cond.wait")
	if err != nil {
		return err
	}
	if err := m.Unlock(); err != nil {
		c.cancel(ch)
		return err
	}
	<-ch
	return m.Lock()
}

func (c *goCond) TimedWait(m Mutex, deadline time.Time) error {
	ch, err := c.enqueue("cond.timedwait")
	if err != nil {
		return err
	}
	if err := m.Unlock(); err != nil {
		c.cancel(ch)
		return err
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case <-ch:
		return m.Lock()
	case <-timer.C:
		timedOut := c.cancel(ch)
		if err := m.Lock(); err != nil {
			return err
		}
		if !timedOut {
			// Signalled between the timer firing and cancel.
			return nil
		}
		return ErrTimedOut
	}
}

func (c *goCond) Signal() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return lockError("cond.signal", statusInvalid)
	}
	if len(c.waiters) > 0 {
		close(c.waiters[0])
		c.waiters = c.waiters[1:]
	}
	return nil
}

func (c *goCond) Broadcast() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return lockError("cond.broadcast", statusInvalid)
	}
	for _, w := range c.waiters {
		close(w)
	}
	c.waiters = nil
	return nil
}

func (c *goCond) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return lockError("cond.destroy", statusInvalid)
	}
	if len(c.waiters) > 0 {
		return lockError("cond.destroy", statusBusy)
	}
	c.destroyed = true
	return nil
}

// goRWLock is the host reader/writer lock.
//
// sync.RWMutex needs to know which kind of lock is being released, so the
// number of read holders is tracked alongside it. While a writer holds the
// lock that number is always zero.
type goRWLock struct {
	rw        sync.RWMutex
	readers   atomic.Int32
	destroyed atomic.Bool
}

func newGoRWLock() *goRWLock {
	return &goRWLock{}
}

func (l *goRWLock) RLock() error {
	if l.destroyed.Load() {
		return lockError("rwlock.rdlock", statusInvalid)
	}
	l.rw.RLock()
	l.readers.Add(1)
	return nil
}

func (l *goRWLock) Lock() error {
	if l.destroyed.Load() {
		return lockError("rwlock.wrlock", statusInvalid)
	}
	l.rw.Lock()
	return nil
}

func (l *goRWLock) TryRLock() error {
	if l.destroyed.Load() {
		return lockError("rwlock.tryrdlock", statusInvalid)
	}
	if !l.rw.TryRLock() {
		return ErrBusy
	}
	l.readers.Add(1)
	return nil
}

func (l *goRWLock) TryLock() error {
	if l.destroyed.Load() {
		return lockError("rwlock.trywrlock", statusInvalid)
	}
	if !l.rw.TryLock() {
		return ErrBusy
	}
	return nil
}

func (l *goRWLock) Unlock() error {
	if l.destroyed.Load() {
		return lockError("rwlock.unlock", statusInvalid)
	}
	if l.readers.Load() > 0 {
		l.readers.Add(-1)
		l.rw.RUnlock()
		return nil
	}
	l.rw.Unlock()
	return nil
}

func (l *goRWLock) Destroy() error {
	if !l.rw.TryLock() {
		return lockError("rwlock.destroy", statusBusy)
	}
	defer l.rw.Unlock()
	if !l.destroyed.CompareAndSwap(false, true) {
		return lockError("rwlock.destroy", statusInvalid)
	}
	return nil
}
