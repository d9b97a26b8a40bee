package native

import (
	"time"

	"golang.org/x/sys/unix"
)

// sleepSeconds calls nanosleep until the whole duration has elapsed. A
// signal interrupts it with EINTR and the remaining time, which is re-armed.
func sleepSeconds(seconds int) {
	if seconds <= 0 {
		return
	}
	req := unix.NsecToTimespec((time.Duration(seconds) * time.Second).Nanoseconds())
	for {
		var rem unix.Timespec
		err := unix.Nanosleep(&req, &rem)
		if err != unix.EINTR {
			return
		}
		req = rem
	}
}
