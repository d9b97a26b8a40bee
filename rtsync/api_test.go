package rtsync

import (
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/rtsync/internal/rtsync/config"
	"github.com/kolkov/rtsync/internal/rtsync/native"
)

func TestMain(m *testing.M) {
	InitWithOptions(Options{StackMax: 1 << 20, Check: true, Report: "none"}, nil)
	os.Exit(m.Run())
}

// TestInitIdempotent verifies later Init calls keep the first runtime.
func TestInitIdempotent(t *testing.T) {
	before := Bootstrap()
	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if Bootstrap() != before {
		t.Error("Init() replaced the bootstrap thread")
	}
	if before.Refs() != 1 {
		t.Errorf("bootstrap Refs() = %d, want 1", before.Refs())
	}
	if !GetInfo().Checking {
		t.Error("GetInfo().Checking = false, want true")
	}
}

// withFreshRuntime runs the test against a runtime that has not been set
// up yet, restoring the shared one afterwards.
func withFreshRuntime(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvVar, "report=none")
	saved := global
	savedHost := native.Default()
	global = &facade{}
	t.Cleanup(func() {
		global = saved
		native.SetDefault(savedHost)
	})
}

// TestLazySetupDoesNotBootstrap verifies that a constructor called first
// from a worker goroutine sets rtsync up without making that worker the
// bootstrap thread, and that Init later bootstraps its own caller.
func TestLazySetupDoesNotBootstrap(t *testing.T) {
	withFreshRuntime(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := NewMutex(); err != nil {
			t.Errorf("NewMutex() error = %v", err)
		}
		if Current() != nil {
			t.Error("worker became a managed thread after NewMutex()")
		}
	}()
	<-done

	if b := Bootstrap(); b != nil {
		t.Fatalf("Bootstrap() before Init = %p, want nil", b)
	}
	if st := GetStats(); st.ThreadsCreated != 0 || st.ThreadsLive != 0 {
		t.Errorf("stats before Init = %+v, want no threads", st)
	}

	type result struct {
		current, boot *Thread
	}
	got := make(chan result, 1)
	go func() {
		// Init wires this goroutine to its OS thread, which then exits
		// with it.
		if err := Init(); err != nil {
			t.Errorf("Init() error = %v", err)
		}
		got <- result{Current(), Bootstrap()}
	}()
	r := <-got

	if r.boot == nil || r.current != r.boot {
		t.Errorf("Init caller: Current() = %p, Bootstrap() = %p; want the same handle", r.current, r.boot)
	}
	if r.boot != nil && r.boot.Refs() != 1 {
		t.Errorf("bootstrap Refs() = %d, want 1", r.boot.Refs())
	}
	if st := GetStats(); st.ThreadsCreated != 1 || st.ThreadsLive != 1 {
		t.Errorf("stats after Init = %+v, want one bootstrap thread", st)
	}
}

// TestGlobalTable guards a shared map with the reader/writer lock from
// managed threads, the way runtime global tables are used.
func TestGlobalTable(t *testing.T) {
	const writers, readers = 4, 8

	rw, err := NewRWLock()
	if err != nil {
		t.Fatalf("NewRWLock() error = %v", err)
	}
	table := make(map[int]int)
	var lookups atomic.Int64

	var threads []*Thread
	for w := 0; w < writers; w++ {
		th, err := CreateThread(func(arg any) any {
			base := arg.(int)
			for i := 0; i < 100; i++ {
				_ = rw.Lock()
				table[base*100+i] = i
				_ = rw.Unlock()
			}
			return nil
		}, w)
		if err != nil {
			t.Fatalf("CreateThread() error = %v", err)
		}
		threads = append(threads, th)
	}
	for r := 0; r < readers; r++ {
		th, err := CreateThread(func(any) any {
			for i := 0; i < 100; i++ {
				_ = rw.RLock()
				_ = table[i]
				_ = rw.Unlock()
				lookups.Add(1)
			}
			return nil
		}, nil)
		if err != nil {
			t.Fatalf("CreateThread() error = %v", err)
		}
		threads = append(threads, th)
	}

	for _, th := range threads {
		if _, err := th.Join(); err != nil {
			t.Fatalf("Join() error = %v", err)
		}
	}
	if len(table) != writers*100 {
		t.Errorf("len(table) = %d, want %d", len(table), writers*100)
	}
	if lookups.Load() != readers*100 {
		t.Errorf("lookups = %d, want %d", lookups.Load(), readers*100)
	}
	if err := rw.Destroy(); err != nil {
		t.Errorf("Destroy() error = %v", err)
	}
	if st := GetStats(); st.Violations != 0 {
		t.Errorf("Violations = %d, want 0", st.Violations)
	}
}

// TestSemaphoreHandoff verifies posts from one thread release waits in
// another.
func TestSemaphoreHandoff(t *testing.T) {
	const n = 32

	sem, err := NewSemaphore(0)
	if err != nil {
		t.Fatalf("NewSemaphore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := sem.Destroy(); err != nil {
			t.Errorf("Destroy() error = %v", err)
		}
	})

	var g errgroup.Group
	g.Go(func() error {
		th, err := CreateThread(func(any) any {
			for i := 0; i < n; i++ {
				if err := sem.Post(); err != nil {
					return err
				}
			}
			return nil
		}, nil)
		if err != nil {
			return err
		}
		res, err := th.Join()
		if err != nil {
			return err
		}
		if res != nil {
			return res.(error)
		}
		return nil
	})
	for i := 0; i < n; i++ {
		g.Go(sem.Wait)
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("handoff error = %v", err)
	}
	if err := sem.TryWait(); !errors.Is(err, ErrBusy) {
		t.Errorf("TryWait() after handoff = %v, want ErrBusy", err)
	}
}

// TestCondTimedWait verifies the timeout surfaces as ErrTimedOut.
func TestCondTimedWait(t *testing.T) {
	m, err := NewMutex()
	if err != nil {
		t.Fatalf("NewMutex() error = %v", err)
	}
	c, err := NewCond()
	if err != nil {
		t.Fatalf("NewCond() error = %v", err)
	}
	_ = m.Lock()
	if err := c.TimedWait(m, 5*time.Millisecond); !errors.Is(err, ErrTimedOut) {
		t.Errorf("TimedWait() = %v, want ErrTimedOut", err)
	}
	_ = m.Unlock()
}

// TestCurrent verifies thread identity accessors from a managed thread.
func TestCurrent(t *testing.T) {
	if Current() != nil {
		t.Fatal("Current() on a test goroutine should be nil")
	}
	type ids struct {
		self  *Thread
		ownID OSThreadID
	}

	th, err := CreateThread(func(any) any {
		return ids{Current(), CurrentNativeID()}
	}, nil)
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}
	res, _ := th.Join()
	got := res.(ids)
	if got.self != th {
		t.Error("Current() inside the thread is not its handle")
	}
	if got.ownID == 0 {
		t.Error("CurrentNativeID() inside the thread = 0")
	}
}

// TestSleep verifies Sleep lasts at least the requested duration.
func TestSleep(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps for a second")
	}
	start := time.Now()
	Sleep(1)
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("Sleep(1) returned after %v", elapsed)
	}
}

// TestCompatible tests API version checks.
func TestCompatible(t *testing.T) {
	tests := []struct {
		required string
		want     bool
	}{
		{"v0.1.0", true},
		{"v0.0.9", true},
		{"v0.2.0", false},
		{"v1.0.0", false},
		{"0.1.0", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Compatible(tt.required); got != tt.want {
			t.Errorf("Compatible(%q) = %v, want %v", tt.required, got, tt.want)
		}
	}
}
