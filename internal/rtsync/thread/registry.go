package thread

import (
	"sync"
	"sync/atomic"
)

// registry tracks every allocated, not yet freed handle.
//
// A handle enters on allocation and leaves exactly once, when its last
// reference is dropped or its creation fails. The counters make leaks
// visible: Live must return to its baseline once every thread has been
// joined or detached and has finished.
type registry struct {
	handles sync.Map // *Handle → struct{}

	allocated atomic.Int64
	freed     atomic.Int64
}

func (r *registry) track(h *Handle) {
	r.handles.Store(h, struct{}{})
	r.allocated.Add(1)
}

// untrack removes h. It reports false if h was not tracked.
func (r *registry) untrack(h *Handle) bool {
	if _, loaded := r.handles.LoadAndDelete(h); !loaded {
		return false
	}
	r.freed.Add(1)
	return true
}

func (r *registry) live() int64 {
	return r.allocated.Load() - r.freed.Load()
}

// snapshot returns the tracked handles in no particular order.
func (r *registry) snapshot() []*Handle {
	var out []*Handle
	r.handles.Range(func(key, _ any) bool {
		out = append(out, key.(*Handle))
		return true
	})
	return out
}
