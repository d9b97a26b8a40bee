package rtsync

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/kolkov/rtsync/internal/rtsync/check"
	"github.com/kolkov/rtsync/internal/rtsync/config"
	"github.com/kolkov/rtsync/internal/rtsync/lock"
	"github.com/kolkov/rtsync/internal/rtsync/native"
	"github.com/kolkov/rtsync/internal/rtsync/rwlock"
	"github.com/kolkov/rtsync/internal/rtsync/thread"
)

type (
	// Mutex is a non-recursive mutual exclusion lock.
	Mutex = lock.Mutex
	// Cond is a condition variable used with a Mutex.
	Cond = lock.Cond
	// Semaphore is a counting semaphore.
	Semaphore = lock.Semaphore
	// RWLock is a writer-preferring reader/writer lock.
	RWLock = rwlock.RWLock
	// Thread is a reference-counted handle to a managed thread.
	Thread = thread.Handle
	// StartFunc is a managed thread's entry point.
	StartFunc = thread.StartFunc

	// Hooks run on every managed thread, first and last.
	Hooks = native.Hooks

	// ThreadID identifies a managed thread for its lifetime.
	ThreadID = native.ThreadID
	// OSThreadID is the kernel's id for the calling OS thread.
	OSThreadID = native.OSThreadID

	// LockError reports a failed lock operation and its host status.
	LockError = native.LockError
	// ThreadCreationError reports that a thread could not be spawned.
	ThreadCreationError = native.ThreadCreationError

	// Options are the settings RTSYNC_OPTIONS would otherwise provide.
	Options = config.Config
)

var (
	// ErrBusy is returned by try operations on a held resource.
	ErrBusy = native.ErrBusy

	// ErrTimedOut is returned by a timed wait that was not signalled.
	ErrTimedOut = native.ErrTimedOut
)

type runtimeState struct {
	cfg       config.Config
	out       io.Writer
	host      native.Host
	checker   *check.Checker
	threads   *thread.Manager
	bootstrap atomic.Pointer[Thread]
}

// facade holds the process-wide runtime. Setup is lazy and happens on the
// first call into the package; the bootstrap handle is installed only by
// Init or InitWithOptions, on the thread that calls them.
type facade struct {
	setupOnce sync.Once
	bootOnce  sync.Once
	setupErr  error
	rt        *runtimeState
}

var global = &facade{}

// Init configures rtsync from RTSYNC_OPTIONS and installs the calling
// goroutine as the bootstrap thread, wiring it to its OS thread. Call it
// from the initial thread, before starting other work.
//
// Init is safe to call multiple times; only the first call has an effect.
// A malformed RTSYNC_OPTIONS is reported and the defaults are used.
func Init() error {
	g := global
	s := state()
	g.bootOnce.Do(func() {
		s.bootstrap.Store(s.threads.Bootstrap())
	})
	return g.setupErr
}

// InitWithOptions is Init with explicit options and thread hooks. hooks may
// be nil. The options are ignored if rtsync was already set up by an
// earlier call.
func InitWithOptions(opts Options, hooks Hooks) {
	global.setupOnce.Do(func() {
		global.rt = start(opts, hooks)
	})
	_ = Init()
}

func start(cfg config.Config, hooks Hooks) *runtimeState {
	s := &runtimeState{
		cfg:  cfg,
		out:  cfg.Writer(),
		host: native.NewHost(cfg.HostOptions()),
	}
	if cfg.Check {
		s.checker = check.New(s.out)
	}
	native.SetDefault(s.host)
	s.threads = thread.NewManager(s.host, hooks, s.checker)
	return s
}

// state returns the runtime, setting it up from RTSYNC_OPTIONS on first
// use. It never installs the bootstrap handle.
func state() *runtimeState {
	g := global
	g.setupOnce.Do(func() {
		cfg, err := config.FromEnv()
		if err != nil {
			g.setupErr = err
			cfg = config.Default()
		}
		g.rt = start(cfg, nil)
	})
	return g.rt
}

// Fini prints a summary of thread and invariant statistics.
func Fini() {
	s := state()
	if s.out == nil {
		return
	}
	st := GetStats()

	fmt.Fprintf(s.out, "\n")
	fmt.Fprintf(s.out, "==================\n")
	fmt.Fprintf(s.out, "rtsync Report\n")
	fmt.Fprintf(s.out, "==================\n")
	fmt.Fprintf(s.out, "Host: %s, rwlock: %s\n", s.host.Name(), rwlock.Strategy)
	if s.checker != nil && rwlock.Strategy == "native" {
		fmt.Fprintf(s.out, "Note: native rwlock transitions are not checked.\n")
	}
	fmt.Fprintf(s.out, "Threads: %d created, %d freed, %d live\n",
		st.ThreadsCreated, st.ThreadsFreed, st.ThreadsLive)
	switch {
	case s.checker == nil:
		fmt.Fprintf(s.out, "Invariant checks disabled.\n")
	case st.Violations == 0:
		fmt.Fprintf(s.out, "✓ No invariant violations (%d checks).\n", st.Checks)
	default:
		fmt.Fprintf(s.out, "WARNING: %d invariant violation(s) detected!\n", st.Violations)
		fmt.Fprintf(s.out, "\nSee above for details.\n")
	}
	fmt.Fprintf(s.out, "==================\n\n")
}

// Stats are runtime counters. Once Init has run, the bootstrap thread
// counts as created and live.
type Stats struct {
	ThreadsCreated int64
	ThreadsFreed   int64
	ThreadsLive    int64
	Checks         int64
	Violations     int
}

// GetStats returns the current counters.
func GetStats() Stats {
	s := state()
	return Stats{
		ThreadsCreated: s.threads.Allocated(),
		ThreadsFreed:   s.threads.Freed(),
		ThreadsLive:    s.threads.Live(),
		Checks:         s.checker.Checks(),
		Violations:     s.checker.Count(),
	}
}

// NewMutex creates a mutex.
func NewMutex() (*Mutex, error) {
	return lock.NewMutex(state().host)
}

// NewCond creates a condition variable.
func NewCond() (*Cond, error) {
	return lock.NewCond(state().host)
}

// NewSemaphore creates a semaphore with initial permits.
func NewSemaphore(initial int) (*Semaphore, error) {
	s := state()
	return lock.NewSemaphore(s.host, initial, s.checker)
}

// NewRWLock creates a reader/writer lock with the strategy selected for
// this build.
func NewRWLock() (RWLock, error) {
	s := state()
	return rwlock.New(s.host, s.checker)
}

// CreateThread starts a managed thread running start(arg) with the default
// stack size.
func CreateThread(start StartFunc, arg any) (*Thread, error) {
	return state().threads.Create(start, arg)
}

// CreateThreadWithStackSize is CreateThread with an explicit stack size.
// 0 selects the default.
func CreateThreadWithStackSize(start StartFunc, arg any, stackSize uint64) (*Thread, error) {
	return state().threads.CreateWithStackSize(start, arg, stackSize)
}

// Exit terminates the calling managed thread with result. It must not be
// called on the bootstrap thread.
func Exit(result any) {
	thread.Exit(result)
}

// Current returns the calling thread's handle, or nil when the caller is
// neither a managed thread nor the bootstrap thread.
func Current() *Thread {
	return thread.Current()
}

// Bootstrap returns the handle installed by Init, or nil before Init.
func Bootstrap() *Thread {
	return state().bootstrap.Load()
}

// CurrentNativeID returns the OS id of the calling thread. It is not
// comparable with Thread.ID on every host.
func CurrentNativeID() OSThreadID {
	return state().threads.CurrentNativeID()
}

// Sleep blocks the calling thread for the full number of seconds, even if
// interrupted by a signal.
func Sleep(seconds int) {
	state().host.Sleep(seconds)
}
