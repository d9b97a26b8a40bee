package native

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func gettid() uint64 {
	var tid int64
	_, _, errno := unix.RawSyscall(unix.SYS_THR_SELF, uintptr(unsafe.Pointer(&tid)), 0, 0)
	if errno != 0 {
		return uint64(GoroutineID())
	}
	return uint64(tid)
}
