//go:build unix && !linux

package native

import "time"

// sleepSeconds relies on time.Sleep, which already resumes across signals.
func sleepSeconds(seconds int) {
	if seconds <= 0 {
		return
	}
	time.Sleep(time.Duration(seconds) * time.Second)
}
