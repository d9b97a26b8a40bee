package thread

import (
	"sync/atomic"

	"github.com/kolkov/rtsync/internal/rtsync/native"
)

// StartFunc is a thread's start routine. Its return value is the thread's
// result.
type StartFunc func(arg any) any

// Handle is a managed thread.
type Handle struct {
	id        native.ThreadID
	stackSize uint64
	mgr       *Manager

	refs atomic.Int32

	// Set at creation, cleared when the handle is freed.
	thread native.Thread

	// Written by the thread before it drops its reference, read by Join
	// after the thread has terminated.
	result any
}

// ID returns the host id recorded for the thread.
func (h *Handle) ID() native.ThreadID { return h.id }

// StackSize returns the effective stack size the thread was created with.
func (h *Handle) StackSize() uint64 { return h.stackSize }

// Refs returns the current reference count.
func (h *Handle) Refs() int32 { return h.refs.Load() }

// Join waits for the thread to terminate, returns its result and drops the
// creator's reference.
func (h *Handle) Join() (any, error) {
	if h.thread == nil {
		return nil, native.InvalidArgument("thread.join")
	}
	if err := h.thread.Join(); err != nil {
		return nil, err
	}
	result := h.result
	h.release("join")
	return result, nil
}

// Detach marks the thread not joinable and drops the creator's reference.
// The thread's result is discarded.
func (h *Handle) Detach() error {
	if h.thread == nil {
		return native.InvalidArgument("thread.detach")
	}
	if err := h.thread.Detach(); err != nil {
		return err
	}
	h.release("detach")
	return nil
}

// release drops one reference and frees the handle if it was the last.
// The caller must not touch h afterwards.
func (h *Handle) release(op string) {
	refs := h.refs.Add(-1)
	h.mgr.checker.Refcount(op, h.id, refs)
	if refs == 0 {
		h.mgr.free(h)
	}
}
