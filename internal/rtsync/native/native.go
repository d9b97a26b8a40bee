package native

import (
	"sync"
	"time"
)

// ThreadID identifies a managed thread as recorded in its handle.
//
// On the Win32 host this is not the same id space as OSThreadID, so the two
// must never be compared.
type ThreadID uint64

// OSThreadID is the operating system's identifier for the calling thread.
type OSThreadID uint64

// Mutex is a host exclusive lock.
type Mutex interface {
	Lock() error
	// TryLock returns ErrBusy when the lock is held.
	TryLock() error
	Unlock() error
	Destroy() error
}

// Cond is a host condition variable. The caller holds m around every call.
type Cond interface {
	// Wait atomically releases m, blocks until signalled and reacquires m.
	Wait(m Mutex) error
	// TimedWait is Wait with an absolute deadline. It returns ErrTimedOut
	// when the deadline passes without a signal.
	TimedWait(m Mutex, deadline time.Time) error
	Signal() error
	Broadcast() error
	Destroy() error
}

// RWLock is a host reader/writer lock.
//
// Unlock releases whichever kind of lock the caller holds.
type RWLock interface {
	RLock() error
	Lock() error
	TryRLock() error
	TryLock() error
	Unlock() error
	Destroy() error
}

// Thread is a host thread created by Host.Spawn.
//
// A new Thread is suspended: it is already running on its own OS thread and
// has an ID, but does not run any caller code until Start.
type Thread interface {
	ID() ThreadID
	// Start resumes the thread, which runs entry and then terminates.
	// Start must be called exactly once.
	Start(entry func())
	// Join blocks until the thread has terminated.
	Join() error
	// Detach marks the thread as not joinable.
	Detach() error
}

// Host is the capability interface consumed by the rest of rtsync.
type Host interface {
	// Name reports the threading model, "posix" or "win32".
	Name() string

	NewMutex() (Mutex, error)
	NewCond() (Cond, error)
	// NewRWLock returns a *LockError when the host has no native
	// reader/writer lock.
	NewRWLock() (RWLock, error)

	// Spawn creates a suspended thread. stackSize is the effective stack
	// size requested by the caller; 0 means the host default.
	Spawn(stackSize uint64) (Thread, error)
	// ExitThread terminates the calling thread. Deferred calls of the
	// thread's entry still run.
	ExitThread()

	// CurrentThreadID returns the OS id of the calling thread.
	CurrentThreadID() OSThreadID
	// BootstrapID returns the handle id for the process's initial thread.
	BootstrapID() ThreadID
	// DefaultStackSize is the stack size used when a caller passes 0.
	DefaultStackSize() uint64

	// Sleep blocks the calling thread for the full number of seconds.
	Sleep(seconds int)
}

// Hooks are the runtime's per-thread bookkeeping callbacks. They run on the
// managed thread itself, first and last.
type Hooks interface {
	OnThreadStart()
	OnThreadEnd()
}

// NopHooks is a Hooks that does nothing.
type NopHooks struct{}

// OnThreadStart does nothing.
func (NopHooks) OnThreadStart() {}

// OnThreadEnd does nothing.
func (NopHooks) OnThreadEnd() {}

// DefaultStackMax caps a stack size derived from the process resource limit.
const DefaultStackMax = 8 << 20

// Options configure a Host.
type Options struct {
	// StackMax caps the default stack size on hosts that derive it from a
	// resource limit. 0 means DefaultStackMax.
	StackMax uint64

	// MaxThreads limits the number of live threads spawned by the host.
	// Spawn fails with a ThreadCreationError beyond it. 0 means no limit.
	MaxThreads int
}

var (
	defaultMu   sync.RWMutex
	defaultHost = NewHost(Options{})
)

// Default returns the process-wide host.
func Default() Host {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultHost
}

// SetDefault replaces the process-wide host. It is meant to be called once,
// during initialization, before any primitive is created.
func SetDefault(h Host) {
	defaultMu.Lock()
	defaultHost = h
	defaultMu.Unlock()
}
