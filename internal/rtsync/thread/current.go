package thread

import (
	"sync"

	"github.com/kolkov/rtsync/internal/rtsync/native"
)

// current maps a goroutine id to the handle of the managed thread it runs.
// An entry is installed once by the trampoline or Bootstrap and removed when
// the thread finishes.
var current sync.Map // int64 → *Handle

func setCurrent(gid int64, h *Handle) {
	current.Store(gid, h)
}

func clearCurrent(gid int64) {
	current.Delete(gid)
}

// Current returns the handle of the calling managed thread, or nil when the
// caller is not one.
func Current() *Handle {
	if val, ok := current.Load(native.GoroutineID()); ok {
		return val.(*Handle)
	}
	return nil
}

// CurrentNativeID returns the OS id of the calling thread on host h. It is
// not comparable with Handle.ID on every host.
func CurrentNativeID(h native.Host) native.OSThreadID {
	return h.CurrentThreadID()
}

// Exit stores result for a pending Join and terminates the calling thread.
// No code after the call runs; the thread's deferred calls and bookkeeping
// do. Exit must be called from a thread created by a Manager.
func Exit(result any) {
	h := Current()
	if h == nil {
		native.Default().ExitThread()
		return
	}
	h.result = result
	h.mgr.host.ExitThread()
}
