package thread

import (
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/rtsync/internal/rtsync/check"
	"github.com/kolkov/rtsync/internal/rtsync/native"
)

type sentinel struct{ n int }

func newManager(t *testing.T, opts native.Options) (*Manager, *check.Checker) {
	t.Helper()
	c := check.New(nil)
	return NewManager(native.NewHost(opts), nil, c), c
}

// waitFor polls cond until it holds or a generous deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func assertNoViolations(t *testing.T, c *check.Checker) {
	t.Helper()
	if n := c.Count(); n != 0 {
		t.Errorf("checker observed %d violations: %v", n, c.Violations())
	}
}

// TestJoinReturnsResult verifies Join yields exactly what the start routine
// returned and frees the handle.
func TestJoinReturnsResult(t *testing.T) {
	m, c := newManager(t, native.Options{})
	want := &sentinel{42}

	h, err := m.Create(func(arg any) any { return arg }, want)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := h.Join()
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if got != want {
		t.Errorf("Join() = %v, want the sentinel %p", got, want)
	}
	if h.Refs() != 0 {
		t.Errorf("Refs() after join = %d, want 0", h.Refs())
	}
	if m.Live() != 0 || m.Freed() != 1 {
		t.Errorf("Live() = %d, Freed() = %d; want 0, 1", m.Live(), m.Freed())
	}
	assertNoViolations(t, c)
}

// TestDetachFreesHandle verifies a detached thread's handle is reclaimed
// whichever side releases last.
func TestDetachFreesHandle(t *testing.T) {
	tests := []struct {
		name        string
		finishFirst bool
	}{
		{"detach before finish", false},
		{"finish before detach", true},
	}

	for _, tt := range tests {
		tt := tt // per-iteration copy (Go 1.21 loop semantics)
		t.Run(tt.name, func(t *testing.T) {
			m, c := newManager(t, native.Options{})
			proceed := make(chan struct{})

			h, err := m.Create(func(any) any {
				<-proceed
				return &sentinel{}
			}, nil)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if h.Refs() != 2 {
				t.Errorf("Refs() after create = %d, want 2", h.Refs())
			}

			if tt.finishFirst {
				close(proceed)
				waitFor(t, "thread release", func() bool { return h.Refs() == 1 })
			}
			if err := h.Detach(); err != nil {
				t.Fatalf("Detach() error = %v", err)
			}
			if !tt.finishFirst {
				if m.Live() != 1 {
					t.Errorf("Live() while running = %d, want 1", m.Live())
				}
				close(proceed)
			}

			waitFor(t, "handle freed", func() bool { return m.Live() == 0 })
			if m.Allocated() != 1 || m.Freed() != 1 {
				t.Errorf("Allocated() = %d, Freed() = %d; want 1, 1", m.Allocated(), m.Freed())
			}
			assertNoViolations(t, c)
		})
	}
}

// TestExit verifies Exit ends the thread early with its result while the
// bookkeeping still runs.
func TestExit(t *testing.T) {
	hooks := &recordingHooks{}
	m := NewManager(native.NewHost(native.Options{}), hooks, nil)
	reached := false

	h, err := m.Create(func(any) any {
		hooks.record("run")
		Exit("early")
		reached = true
		return "late"
	}, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := h.Join()
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	if got != "early" {
		t.Errorf("Join() = %v, want early", got)
	}
	if reached {
		t.Error("code after Exit ran")
	}
	if want := []string{"start", "run", "end"}; !hooks.equal(want) {
		t.Errorf("hook order = %v, want %v", hooks.events(), want)
	}
	if m.Live() != 0 {
		t.Errorf("Live() = %d, want 0", m.Live())
	}
}

type recordingHooks struct {
	mu  sync.Mutex
	log []string
}

func (r *recordingHooks) record(ev string) {
	r.mu.Lock()
	r.log = append(r.log, ev)
	r.mu.Unlock()
}

func (r *recordingHooks) OnThreadStart() { r.record("start") }
func (r *recordingHooks) OnThreadEnd()   { r.record("end") }

func (r *recordingHooks) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

func (r *recordingHooks) equal(want []string) bool {
	got := r.events()
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// TestHooksOrder verifies the trampoline's ordering around the start
// routine and the current handle.
func TestHooksOrder(t *testing.T) {
	hooks := &recordingHooks{}
	m := NewManager(native.NewHost(native.Options{}), hooks, nil)

	h, err := m.Create(func(any) any {
		if Current() == nil {
			hooks.record("no-current")
		}
		hooks.record("run")
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := h.Join(); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if want := []string{"start", "run", "end"}; !hooks.equal(want) {
		t.Errorf("hook order = %v, want %v", hooks.events(), want)
	}
}

// TestCurrent verifies each thread sees its own handle and unmanaged
// goroutines see none.
func TestCurrent(t *testing.T) {
	m, c := newManager(t, native.Options{})

	if Current() != nil {
		t.Fatal("Current() on the test goroutine should be nil")
	}

	const n = 4
	handles := make([]*Handle, n)
	seen := make([]*Handle, n)
	refs := make([]int32, n)
	var started sync.WaitGroup
	started.Add(n)
	gate := make(chan struct{})

	for i := 0; i < n; i++ {
		i := i // per-iteration copy (Go 1.21 loop semantics)
		h, err := m.Create(func(any) any {
			seen[i] = Current()
			refs[i] = seen[i].Refs()
			started.Done()
			<-gate
			return nil
		}, nil)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		handles[i] = h
	}
	started.Wait()
	close(gate)

	for i, h := range handles {
		if _, err := h.Join(); err != nil {
			t.Fatalf("Join() error = %v", err)
		}
		if seen[i] != h {
			t.Errorf("thread %d: Current() = %p, want %p", i, seen[i], h)
		}
		if refs[i] != 2 {
			t.Errorf("thread %d: Refs() while running = %d, want 2", i, refs[i])
		}
	}
	assertNoViolations(t, c)
}

// TestNativeIDs verifies live threads report distinct OS ids, and that on
// POSIX the handle id is the OS id.
func TestNativeIDs(t *testing.T) {
	m, _ := newManager(t, native.Options{})
	var both sync.WaitGroup
	both.Add(2)

	type ids struct {
		os     native.OSThreadID
		handle native.ThreadID
	}
	results := make(chan ids, 2)
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		h, err := m.Create(func(any) any {
			results <- ids{m.CurrentNativeID(), Current().ID()}
			both.Done()
			both.Wait()
			return nil
		}, nil)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		g.Go(func() error {
			_, err := h.Join()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	close(results)

	var got []ids
	for r := range results {
		got = append(got, r)
	}
	if got[0].os == got[1].os {
		t.Errorf("two live threads share OS id %d", got[0].os)
	}
	if m.Host().Name() == "posix" {
		for _, r := range got {
			if uint64(r.os) != uint64(r.handle) {
				t.Errorf("handle id %d != OS id %d on posix", r.handle, r.os)
			}
		}
	}
}

// TestStackSize tests effective stack size selection.
func TestStackSize(t *testing.T) {
	m, _ := newManager(t, native.Options{StackMax: 1 << 20})
	def := m.Host().DefaultStackSize()

	tests := []struct {
		name string
		size uint64
		want uint64
	}{
		{"default", 0, def},
		{"explicit", 256 << 10, 256 << 10},
	}
	for _, tt := range tests {
		tt := tt // per-iteration copy (Go 1.21 loop semantics)
		t.Run(tt.name, func(t *testing.T) {
			h, err := m.CreateWithStackSize(func(any) any { return nil }, nil, tt.size)
			if err != nil {
				t.Fatalf("CreateWithStackSize() error = %v", err)
			}
			if got := h.StackSize(); got != tt.want {
				t.Errorf("StackSize() = %d, want %d", got, tt.want)
			}
			_, _ = h.Join()
		})
	}
	if def == 0 || def > 1<<20 {
		t.Errorf("DefaultStackSize() = %d, want in (0, 1MiB]", def)
	}
}

// refusingHost fails every spawn the way an exhausted host does.
type refusingHost struct {
	native.Host
}

func (refusingHost) Spawn(uint64) (native.Thread, error) {
	return nil, &native.ThreadCreationError{Errno: 11}
}

// TestCreateFailure verifies a failed spawn returns ThreadCreationError and
// leaves nothing allocated.
func TestCreateFailure(t *testing.T) {
	m := NewManager(refusingHost{native.NewHost(native.Options{})}, nil, nil)

	h, err := m.Create(func(any) any { return nil }, nil)
	var tce *native.ThreadCreationError
	if h != nil || !errors.As(err, &tce) {
		t.Fatalf("Create() = %v, %v; want nil, *ThreadCreationError", h, err)
	}
	if m.Live() != 0 || m.Allocated() != 1 || m.Freed() != 1 {
		t.Errorf("Live/Allocated/Freed = %d/%d/%d, want 0/1/1",
			m.Live(), m.Allocated(), m.Freed())
	}
	if len(m.Handles()) != 0 {
		t.Error("failed handle still registered")
	}
}

// TestMaxThreads verifies the host thread limit reaches callers of Create.
func TestMaxThreads(t *testing.T) {
	m, c := newManager(t, native.Options{MaxThreads: 2})
	gate := make(chan struct{})
	block := func(any) any { <-gate; return nil }

	var handles []*Handle
	for i := 0; i < 2; i++ {
		h, err := m.Create(block, nil)
		if err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
		handles = append(handles, h)
	}

	_, err := m.Create(block, nil)
	var tce *native.ThreadCreationError
	if !errors.As(err, &tce) {
		t.Fatalf("Create() over limit = %v, want *ThreadCreationError", err)
	}
	if m.Live() != 2 {
		t.Errorf("Live() = %d, want 2", m.Live())
	}

	close(gate)
	for _, h := range handles {
		if _, err := h.Join(); err != nil {
			t.Errorf("Join() error = %v", err)
		}
	}
	if m.Live() != 0 {
		t.Errorf("Live() = %d, want 0", m.Live())
	}
	assertNoViolations(t, c)
}

// TestBootstrap verifies the initial thread's handle.
func TestBootstrap(t *testing.T) {
	m, c := newManager(t, native.Options{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		h := m.Bootstrap()
		if h.Refs() != 1 {
			t.Errorf("bootstrap Refs() = %d, want 1", h.Refs())
		}
		if h.ID() != m.Host().BootstrapID() {
			t.Errorf("bootstrap ID() = %#x, want %#x", h.ID(), m.Host().BootstrapID())
		}
		if Current() != h {
			t.Error("Current() is not the bootstrap handle")
		}
		if again := m.Bootstrap(); again != h {
			t.Error("second Bootstrap() installed a new handle")
		}
		if _, err := h.Join(); err == nil {
			t.Error("Join() on bootstrap handle succeeded")
		}
		clearCurrent(native.GoroutineID())
	}()
	<-done

	if m.Allocated() != 1 || m.Live() != 1 {
		t.Errorf("Allocated() = %d, Live() = %d; want 1, 1", m.Allocated(), m.Live())
	}
	assertNoViolations(t, c)
}

// TestConcurrentLifecycle races join and detach across many threads.
func TestConcurrentLifecycle(t *testing.T) {
	const n = 64
	m, c := newManager(t, native.Options{})

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i // per-iteration copy (Go 1.21 loop semantics)
		g.Go(func() error {
			h, err := m.Create(func(arg any) any { return arg }, i)
			if err != nil {
				return err
			}
			if i%2 == 0 {
				return h.Detach()
			}
			got, err := h.Join()
			if err != nil {
				return err
			}
			if got != i {
				t.Errorf("Join() = %v, want %d", got, i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("lifecycle error = %v", err)
	}

	waitFor(t, "all handles freed", func() bool { return m.Live() == 0 })
	if m.Freed() != n {
		t.Errorf("Freed() = %d, want %d", m.Freed(), n)
	}
	assertNoViolations(t, c)
}

func BenchmarkCreateJoin(b *testing.B) {
	m := NewManager(native.NewHost(native.Options{}), nil, nil)
	start := func(arg any) any { return arg }
	for i := 0; i < b.N; i++ {
		h, err := m.Create(start, nil)
		if err != nil {
			b.Fatal(err)
		}
		_, _ = h.Join()
	}
}
