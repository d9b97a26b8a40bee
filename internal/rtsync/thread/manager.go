package thread

import (
	"runtime"

	"github.com/kolkov/rtsync/internal/rtsync/check"
	"github.com/kolkov/rtsync/internal/rtsync/native"
)

// Manager creates managed threads on one host.
type Manager struct {
	host    native.Host
	hooks   native.Hooks
	checker *check.Checker
	handles registry
}

// NewManager returns a Manager for host h. hooks run on every managed thread
// at start and end; nil means none. c may be nil.
func NewManager(h native.Host, hooks native.Hooks, c *check.Checker) *Manager {
	if hooks == nil {
		hooks = native.NopHooks{}
	}
	return &Manager{
		host:    h,
		hooks:   hooks,
		checker: c,
	}
}

// Host returns the host threads are created on.
func (m *Manager) Host() native.Host { return m.host }

// Create starts a thread running start(arg) with the host's default stack
// size.
func (m *Manager) Create(start StartFunc, arg any) (*Handle, error) {
	return m.CreateWithStackSize(start, arg, 0)
}

// CreateWithStackSize starts a thread running start(arg). A stackSize of 0
// selects the host default.
//
// On failure no handle remains allocated and the error is the host's
// *native.ThreadCreationError.
func (m *Manager) CreateWithStackSize(start StartFunc, arg any, stackSize uint64) (*Handle, error) {
	if stackSize == 0 {
		stackSize = m.host.DefaultStackSize()
	}

	h := &Handle{
		stackSize: stackSize,
		mgr:       m,
	}
	h.refs.Store(2)
	m.handles.track(h)

	t, err := m.host.Spawn(stackSize)
	if err != nil {
		// Neither party will ever release: drop both references here.
		h.refs.Store(0)
		m.handles.untrack(h)
		return nil, err
	}

	// The thread is suspended until Start, so the handle is complete
	// before any of its code runs.
	h.id = t.ID()
	h.thread = t
	m.checker.Refcount("create", h.id, 2)

	t.Start(func() { m.trampoline(h, start, arg) })
	return h, nil
}

// trampoline runs on the new thread. Deferred calls keep the teardown
// order intact when start calls Exit.
func (m *Manager) trampoline(h *Handle, start StartFunc, arg any) {
	m.hooks.OnThreadStart()
	defer m.hooks.OnThreadEnd()

	gid := native.GoroutineID()
	setCurrent(gid, h)
	defer clearCurrent(gid)
	defer h.release("exit")

	h.result = start(arg)
}

// Bootstrap installs the handle of the calling thread, which is wired to
// its OS thread from now on. The handle holds one reference and is never
// joined or detached. Calling Bootstrap again on the same thread returns
// the installed handle.
func (m *Manager) Bootstrap() *Handle {
	if h := Current(); h != nil {
		return h
	}
	runtime.LockOSThread()

	h := &Handle{
		id:        m.host.BootstrapID(),
		stackSize: m.host.DefaultStackSize(),
		mgr:       m,
	}
	h.refs.Store(1)
	m.handles.track(h)
	setCurrent(native.GoroutineID(), h)
	m.checker.Refcount("bootstrap", h.id, 1)
	return h
}

// CurrentNativeID returns the OS id of the calling thread.
func (m *Manager) CurrentNativeID() native.OSThreadID {
	return CurrentNativeID(m.host)
}

func (m *Manager) free(h *Handle) {
	m.handles.untrack(h)
	h.thread = nil
	h.result = nil
}

// Live returns the number of handles allocated and not yet freed.
func (m *Manager) Live() int64 { return m.handles.live() }

// Allocated returns the number of handles ever allocated.
func (m *Manager) Allocated() int64 { return m.handles.allocated.Load() }

// Freed returns the number of handles freed.
func (m *Manager) Freed() int64 { return m.handles.freed.Load() }

// Handles returns the live handles.
func (m *Manager) Handles() []*Handle { return m.handles.snapshot() }
