//go:build unix && !linux && !freebsd

package native

// gettid has no portable kernel thread id to report here. Managed threads
// are wired 1:1 to OS threads, so the goroutine id names the thread for as
// long as it lives.
func gettid() uint64 {
	return uint64(GoroutineID())
}
