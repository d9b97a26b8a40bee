// Package check instruments rtsync primitives with invariant checks.
//
// A Checker is handed to a primitive at construction time. The primitive
// reports its internal counters after every state transition, while still
// holding its own lock, and the Checker verifies them:
//
//	rwlock:    0 <= readers, writers in {0,1}, waiting >= 0,
//	           readers > 0 implies writers == 0
//	semaphore: count >= 0
//	refcount:  0 <= refs <= 2
//
// Violations are recorded, deduplicated by kind/op/detail, and printed to
// the Checker's writer in a banner block with the stack that observed them.
// Checks never alter the primitive's behavior; a nil *Checker is valid and
// does nothing, so primitives call it unconditionally.
package check

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/kolkov/rtsync/internal/rtsync/native"
)

// Kind names the primitive whose invariant failed.
type Kind string

const (
	// KindRWLock is a reader/writer lock counter violation.
	KindRWLock Kind = "rwlock"
	// KindSemaphore is a negative semaphore count.
	KindSemaphore Kind = "semaphore"
	// KindRefcount is a thread handle reference count out of range.
	KindRefcount Kind = "refcount"
)

// Violation is one observed invariant failure.
type Violation struct {
	Kind        Kind
	Op          string // Operation that produced the state, e.g. "unlock"
	Detail      string // The offending counters
	GoroutineID int64
	Stack       uint64 // Hash into the stack depot
}

func (v Violation) key() string {
	return fmt.Sprintf("%s:%s:%s", v.Kind, v.Op, v.Detail)
}

// Checker verifies primitive invariants.
type Checker struct {
	out io.Writer

	checks atomic.Int64

	mu         sync.Mutex
	seen       map[string]bool
	violations []Violation
}

// New returns a Checker that prints reports to out. A nil out records
// violations without printing them.
func New(out io.Writer) *Checker {
	return &Checker{
		out:  out,
		seen: make(map[string]bool),
	}
}

// RWLock checks a reader/writer lock state after op.
func (c *Checker) RWLock(op string, readers, writers, waiting int) {
	if c == nil {
		return
	}
	c.checks.Add(1)

	switch {
	case writers < 0 || writers > 1:
		c.report(KindRWLock, op, fmt.Sprintf("writers=%d", writers))
	case readers < 0:
		c.report(KindRWLock, op, fmt.Sprintf("readers=%d", readers))
	case readers > 0 && writers != 0:
		c.report(KindRWLock, op, fmt.Sprintf("readers=%d writers=%d", readers, writers))
	case waiting < 0:
		c.report(KindRWLock, op, fmt.Sprintf("writers_waiting=%d", waiting))
	}
}

// Semaphore checks a semaphore count after op.
func (c *Checker) Semaphore(op string, count int) {
	if c == nil {
		return
	}
	c.checks.Add(1)

	if count < 0 {
		c.report(KindSemaphore, op, fmt.Sprintf("count=%d", count))
	}
}

// Refcount checks a thread handle reference count after op.
func (c *Checker) Refcount(op string, id native.ThreadID, refs int32) {
	if c == nil {
		return
	}
	c.checks.Add(1)

	if refs < 0 || refs > 2 {
		c.report(KindRefcount, op, fmt.Sprintf("thread=%#x refs=%d", uint64(id), refs))
	}
}

func (c *Checker) report(kind Kind, op, detail string) {
	v := Violation{
		Kind:        kind,
		Op:          op,
		Detail:      detail,
		GoroutineID: native.GoroutineID(),
		Stack:       captureStack(2),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.violations = append(c.violations, v)
	key := v.key()
	if c.seen[key] {
		return
	}
	c.seen[key] = true

	if c.out != nil {
		printViolation(c.out, v)
	}
}

func printViolation(w io.Writer, v Violation) {
	fmt.Fprintf(w, "==================\n")
	fmt.Fprintf(w, "WARNING: INVARIANT VIOLATION (%s)\n", v.Kind)
	fmt.Fprintf(w, "%s by goroutine %d: %s\n", v.Op, v.GoroutineID, v.Detail)
	fmt.Fprint(w, GetStack(v.Stack).Format())
	fmt.Fprintf(w, "==================\n")
}

// Checks returns the number of states checked.
func (c *Checker) Checks() int64 {
	if c == nil {
		return 0
	}
	return c.checks.Load()
}

// Count returns the number of violations observed, duplicates included.
func (c *Checker) Count() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.violations)
}

// Violations returns a copy of the recorded violations.
func (c *Checker) Violations() []Violation {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Violation, len(c.violations))
	copy(out, c.violations)
	return out
}

// Reset clears recorded violations and counters.
func (c *Checker) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.violations = nil
	c.seen = make(map[string]bool)
	c.mu.Unlock()
	c.checks.Store(0)
}
