// Package rtsync provides portable synchronization primitives and managed
// native threads with the same semantics on POSIX and Win32 hosts.
//
// # Quick Start
//
//	func main() {
//		if err := rtsync.Init(); err != nil {
//			log.Fatal(err)
//		}
//		defer rtsync.Fini()
//
//		table, _ := rtsync.NewRWLock()
//		t, _ := rtsync.CreateThread(func(arg any) any {
//			_ = table.RLock()
//			defer table.Unlock()
//			return lookup(arg)
//		}, "key")
//		result, _ := t.Join()
//	}
//
// # Primitives
//
//   - Mutex: exclusive lock, [NewMutex]
//   - Cond: condition variable with timed wait, [NewCond]
//   - Semaphore: counting semaphore, [NewSemaphore]
//   - RWLock: reader/writer lock with writer preference, [NewRWLock]
//   - Thread: managed native thread, [CreateThread], [Exit], [Current]
//
// Every blocking call blocks the calling OS thread. Try variants never
// block and return [ErrBusy] on contention. Only [Cond.TimedWait] times out.
//
// # Threads
//
// A managed thread runs on its own OS thread. Its handle is shared by the
// creator and the thread and is freed when both are done with it: the
// creator by calling Join or Detach exactly once, the thread by returning
// from its start routine or calling [Exit].
//
// # Configuration
//
// [Init] installs the calling thread as the bootstrap thread, so call it
// from main. The first call into the package, Init or any other, reads the
// RTSYNC_OPTIONS environment variable:
//
//	RTSYNC_OPTIONS="stack_max=4m max_threads=256 check=1 report=stderr"
//
// With check=1 every semaphore and thread handle transition is verified
// against its invariants, and violations are reported with the stack that
// observed them. Reader/writer lock transitions are verified only with the
// fallback strategy (Windows, or the rtsync_condrw build tag); the native
// lock keeps no counters to check. [Fini] prints a summary.
//
// # Platform
//
// The host is chosen at build time. On Unix the reader/writer lock uses the
// host's own implementation unless built with the rtsync_condrw tag; on
// Windows it is always built from a mutex and two condition variables.
package rtsync
