package native

import (
	"runtime"
	"sync/atomic"
)

// spawner creates pinned goroutine threads and enforces Options.MaxThreads.
// Both hosts embed one; they differ only in how a new thread is named.
type spawner struct {
	max  int
	live atomic.Int64
}

// pinnedThread is a goroutine wired to its own OS thread until it exits.
type pinnedThread struct {
	id       ThreadID
	entry    chan func()
	done     chan struct{}
	detached atomic.Bool
}

// spawn starts a suspended pinned thread. name runs on the new OS thread and
// produces the thread's id before spawn returns.
//
// stackSize is accepted for symmetry with the host call it stands for; the
// Go runtime sizes goroutine stacks itself.
func (s *spawner) spawn(_ uint64, name func() ThreadID) (*pinnedThread, error) {
	n := s.live.Add(1)
	if s.max > 0 && n > int64(s.max) {
		s.live.Add(-1)
		return nil, &ThreadCreationError{Errno: statusAgain}
	}

	t := &pinnedThread{
		entry: make(chan func(), 1),
		done:  make(chan struct{}),
	}
	ready := make(chan struct{})

	go func() {
		// Never unlocked: when this goroutine returns (or calls
		// runtime.Goexit) the OS thread is terminated with it.
		runtime.LockOSThread()

		defer close(t.done)
		defer s.live.Add(-1)

		t.id = name()
		close(ready)

		entry := <-t.entry
		entry()
	}()

	<-ready
	return t, nil
}

// Live returns the number of threads spawned and not yet terminated.
func (s *spawner) Live() int64 {
	return s.live.Load()
}

func (t *pinnedThread) ID() ThreadID {
	return t.id
}

func (t *pinnedThread) Start(entry func()) {
	t.entry <- entry
}

// Join waits for termination. Joining a detached thread is a precondition
// violation; it still waits rather than failing.
func (t *pinnedThread) Join() error {
	<-t.done
	return nil
}

func (t *pinnedThread) Detach() error {
	if !t.detached.CompareAndSwap(false, true) {
		return lockError("thread.detach", statusInvalid)
	}
	return nil
}

func exitThread() {
	runtime.Goexit()
}
