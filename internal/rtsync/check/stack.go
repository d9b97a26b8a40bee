package check

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"sync"
)

// MaxFrames is the maximum number of stack frames kept per violation.
const MaxFrames = 16

// StackTrace is a captured stack, stored once per distinct hash.
type StackTrace struct {
	PC [MaxFrames]uintptr
}

// depot deduplicates violation stacks: a checker that trips the same
// invariant from the same call site in a loop stores one trace.
var depot sync.Map // uint64 (hash) → *StackTrace

// captureStack records the caller's stack, skipping skip frames above
// captureStack itself, and returns its depot hash (0 if none).
func captureStack(skip int) uint64 {
	var pcs [MaxFrames]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return 0
	}

	hash := hashStack(pcs[:n])
	if _, exists := depot.Load(hash); !exists {
		depot.Store(hash, &StackTrace{PC: pcs})
	}
	return hash
}

// GetStack returns the stack stored under hash, or nil.
func GetStack(hash uint64) *StackTrace {
	if hash == 0 {
		return nil
	}
	val, ok := depot.Load(hash)
	if !ok {
		return nil
	}
	return val.(*StackTrace)
}

func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	var b [8]byte
	for _, pc := range pcs {
		binary.LittleEndian.PutUint64(b[:], uint64(pc))
		_, _ = h.Write(b[:])
	}
	return h.Sum64()
}

// Format renders the stack without runtime frames:
//
//	github.com/kolkov/rtsync/internal/rtsync/rwlock.(*Fallback).Unlock()
//	    /path/to/fallback.go:120
func (st *StackTrace) Format() string {
	if st == nil {
		return "  <unknown>\n"
	}

	frames := runtime.CallersFrames(st.PC[:])
	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&buf, "  %s()\n", frame.Function)
			fmt.Fprintf(&buf, "      %s:%d\n", frame.File, frame.Line)
		}
		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  <runtime internal>\n"
	}
	return buf.String()
}
