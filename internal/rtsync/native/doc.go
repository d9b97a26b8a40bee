// Package native is the host capability layer of rtsync.
//
// Everything above this package (lock, rwlock, thread) is written against
// the small set of interfaces declared here and never branches on the host
// platform. Exactly one Host implementation is compiled into a binary:
//
//   - host_unix.go: the POSIX threading model. Thread and handle ids share
//     one space (the kernel thread id on Linux), the default thread stack
//     size follows RLIMIT_STACK capped at Options.StackMax, and the host
//     offers a native reader/writer lock.
//   - host_windows.go: the Win32 threading model. Handle ids are
//     handle-like values distinct from GetCurrentThreadId, the default stack
//     size is a fixed constant, and there is no native reader/writer lock.
//
// The blocking primitives themselves are the Go runtime's (sync.Mutex,
// sync.RWMutex, channels), and a "native thread" is a goroutine that is wired
// to its OS thread for its whole life:
//
//	go func() {
//		runtime.LockOSThread() // never unlocked: the OS thread exits with us
//		...
//	}()
//
// Errors follow the taxonomy in errors.go: ErrBusy, ErrTimedOut, *LockError
// carrying the host status, and *ThreadCreationError.
package native
