// Package thread manages native threads and their handles.
//
// A managed thread is a goroutine wired to its own OS thread for its whole
// life. Its Handle is shared by two parties, the creator and the thread
// itself, and starts with a reference count of 2:
//
//	h, err := m.Create(work, arg)   // refs = 2
//	...                             // thread finishes: refs = 1
//	result, err := h.Join()         // refs = 0, handle freed
//
// Join or Detach drops the creator's reference; the thread drops its own
// when its start routine returns or calls Exit. Whichever drop reaches zero
// frees the handle. Each handle is retired by exactly one Join or one
// Detach; calling both, or either twice, is a precondition violation and is
// not detected.
//
// The handle of the calling thread is available through Current. The
// process's initial thread gets one from Manager.Bootstrap, with a single
// reference that is never released.
package thread
