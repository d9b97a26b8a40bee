package native

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrBusy is returned by try operations that found the resource held.
var ErrBusy = errors.New("rtsync: resource busy")

// ErrTimedOut is returned by a timed wait whose deadline passed without a
// signal.
var ErrTimedOut = errors.New("rtsync: timed out")

// LockError reports a failed host primitive call.
//
// Example:
//
//	err := m.Destroy()
//	var le *native.LockError
//	if errors.As(err, &le) {
//		fmt.Println(le.Op, le.Errno) // mutex.destroy device or resource busy
//	}
type LockError struct {
	Op    string        // Operation, e.g. "mutex.destroy"
	Errno syscall.Errno // Host status
}

func (e *LockError) Error() string {
	return fmt.Sprintf("rtsync: %s: %v", e.Op, e.Errno)
}

// Unwrap exposes the host status to errors.Is.
func (e *LockError) Unwrap() error {
	return e.Errno
}

// ThreadCreationError reports that the host could not spawn a thread. By the
// time it is returned every partial allocation has been released.
type ThreadCreationError struct {
	Errno syscall.Errno
}

func (e *ThreadCreationError) Error() string {
	return fmt.Sprintf("rtsync: thread creation failed: %v", e.Errno)
}

// Unwrap exposes the host status to errors.Is.
func (e *ThreadCreationError) Unwrap() error {
	return e.Errno
}

func lockError(op string, errno syscall.Errno) error {
	return &LockError{Op: op, Errno: errno}
}

// InvalidArgument returns the *LockError a host reports for a bad argument
// to op. Primitives built on top of the host use it to reject input the
// same way the host would.
func InvalidArgument(op string) error {
	return lockError(op, statusInvalid)
}
