// Copyright 2025 The rtsync Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package native

import "golang.org/x/sys/unix"

const (
	statusBusy    = unix.EBUSY
	statusInvalid = unix.EINVAL
	statusAgain   = unix.EAGAIN
)

// posixHost is the POSIX threading model: one id space for handles and OS
// threads, stack size from RLIMIT_STACK, and a native reader/writer lock.
type posixHost struct {
	spawner
	stackMax uint64
}

// NewHost returns the host for this platform.
func NewHost(opts Options) Host {
	stackMax := opts.StackMax
	if stackMax == 0 {
		stackMax = DefaultStackMax
	}
	return &posixHost{
		spawner:  spawner{max: opts.MaxThreads},
		stackMax: stackMax,
	}
}

func (h *posixHost) Name() string { return "posix" }

func (h *posixHost) NewMutex() (Mutex, error) { return newGoMutex(), nil }

func (h *posixHost) NewCond() (Cond, error) { return newGoCond(), nil }

func (h *posixHost) NewRWLock() (RWLock, error) { return newGoRWLock(), nil }

func (h *posixHost) Spawn(stackSize uint64) (Thread, error) {
	t, err := h.spawn(stackSize, func() ThreadID {
		return ThreadID(gettid())
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (h *posixHost) ExitThread() { exitThread() }

func (h *posixHost) CurrentThreadID() OSThreadID {
	return OSThreadID(gettid())
}

// BootstrapID is the kernel id of the calling thread; the caller is expected
// to be wired to it.
func (h *posixHost) BootstrapID() ThreadID {
	return ThreadID(gettid())
}

// DefaultStackSize returns the soft RLIMIT_STACK, capped at the configured
// maximum. An unlimited or unreadable limit yields the maximum.
func (h *posixHost) DefaultStackSize() uint64 {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_STACK, &rl); err != nil {
		return h.stackMax
	}
	size := uint64(rl.Cur)
	if size > h.stackMax {
		size = h.stackMax
	}
	return size
}

func (h *posixHost) Sleep(seconds int) {
	sleepSeconds(seconds)
}
