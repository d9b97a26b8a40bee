// Copyright 2025 The rtsync Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build windows

package native

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/windows"
)

const (
	statusBusy         = windows.ERROR_BUSY
	statusInvalid      = windows.ERROR_INVALID_PARAMETER
	statusAgain        = windows.ERROR_MAX_THRDS_REACHED
	statusNotSupported = windows.ERROR_NOT_SUPPORTED
)

// FixedStackSize is the stack size given to threads created without an
// explicit size.
const FixedStackSize = 1 << 20

// currentThreadPseudoHandle is what GetCurrentThread returns: valid only on
// the calling thread, and distinct from every real handle value.
const currentThreadPseudoHandle = ^ThreadID(1)

// win32Host is the Win32 threading model. Handles are handle-like values
// that share nothing with GetCurrentThreadId, stacks have a fixed size, and
// there is no native reader/writer lock.
type win32Host struct {
	spawner
	nextHandle atomic.Uint64
}

// NewHost returns the host for this platform. StackMax does not apply.
func NewHost(opts Options) Host {
	h := &win32Host{spawner: spawner{max: opts.MaxThreads}}
	h.nextHandle.Store(0x100)
	return h
}

func (h *win32Host) Name() string { return "win32" }

func (h *win32Host) NewMutex() (Mutex, error) { return newGoMutex(), nil }

func (h *win32Host) NewCond() (Cond, error) { return newGoCond(), nil }

func (h *win32Host) NewRWLock() (RWLock, error) {
	return nil, lockError("rwlock.create", statusNotSupported)
}

func (h *win32Host) Spawn(stackSize uint64) (Thread, error) {
	handle := ThreadID(h.nextHandle.Add(4))
	t, err := h.spawn(stackSize, func() ThreadID { return handle })
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (h *win32Host) ExitThread() { exitThread() }

func (h *win32Host) CurrentThreadID() OSThreadID {
	return OSThreadID(windows.GetCurrentThreadId())
}

func (h *win32Host) BootstrapID() ThreadID {
	return currentThreadPseudoHandle
}

func (h *win32Host) DefaultStackSize() uint64 {
	return FixedStackSize
}

// Sleep loops on SleepEx until the deadline, so an early return does not
// shorten the requested duration.
func (h *win32Host) Sleep(seconds int) {
	if seconds <= 0 {
		return
	}
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return
		}
		windows.SleepEx(uint32((left+time.Millisecond-1)/time.Millisecond), false)
	}
}
