package main

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/rtsync/rtsync"
)

// scenario is one stress check. Its name is "<command>/<check>".
type scenario struct {
	name string
	run  func(cfg *stressConfig, out *reporter) error
}

var allScenarios = []scenario{
	{"rwlock/exclusion", stressExclusion},
	{"rwlock/writer-preference", stressWriterPreference},
	{"sema/accounting", stressSemaphore},
	{"threads/lifecycle", stressThreads},
}

// scenariosFor returns the scenarios selected by command.
func scenariosFor(command string) []scenario {
	if command == "all" {
		return allScenarios
	}
	var out []scenario
	for _, s := range allScenarios {
		if strings.HasPrefix(s.name, command+"/") {
			out = append(out, s)
		}
	}
	return out
}

// runScenarios runs list and returns the number of failures.
func runScenarios(out *reporter, list []scenario, cfg *stressConfig) int {
	failed := 0
	for _, s := range list {
		start := time.Now()
		err := s.run(cfg, out)
		out.result(s.name, err)
		if cfg.verbose {
			out.detail("took %v", time.Since(start).Round(time.Millisecond))
		}
		if err != nil {
			failed++
		}
	}
	return failed
}

// destroyer is a primitive released with Destroy.
type destroyer interface {
	Destroy() error
}

// destroy releases d and joins a failure into *errp.
func destroy(errp *error, d destroyer) {
	if err := d.Destroy(); err != nil {
		*errp = errors.Join(*errp, fmt.Errorf("destroy: %w", err))
	}
}

// stressExclusion checks that no reader overlaps a writer and no two
// writers overlap.
func stressExclusion(cfg *stressConfig, out *reporter) (err error) {
	rw, err := rtsync.NewRWLock()
	if err != nil {
		return err
	}
	defer destroy(&err, rw)

	var writing, reading atomic.Int32
	var overlaps atomic.Int64
	var g errgroup.Group
	for w := 0; w < cfg.workers; w++ {
		w := w // per-iteration copy (Go 1.21 loop semantics)
		g.Go(func() error {
			for i := 0; i < cfg.iterations; i++ {
				if (i+w)%4 == 0 {
					if err := rw.Lock(); err != nil {
						return err
					}
					if writing.Add(1) != 1 || reading.Load() != 0 {
						overlaps.Add(1)
					}
					writing.Add(-1)
					if err := rw.Unlock(); err != nil {
						return err
					}
					continue
				}
				if err := rw.RLock(); err != nil {
					return err
				}
				reading.Add(1)
				if writing.Load() != 0 {
					overlaps.Add(1)
				}
				reading.Add(-1)
				if err := rw.Unlock(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := overlaps.Load(); n > 0 {
		return fmt.Errorf("%d overlapping acquisitions", n)
	}
	if cfg.verbose {
		out.detail("%d workers x %d acquisitions", cfg.workers, cfg.iterations)
	}
	return nil
}

// stressWriterPreference checks that a writer keeps making progress while
// readers hold the lock continuously.
func stressWriterPreference(cfg *stressConfig, out *reporter) (err error) {
	rw, err := rtsync.NewRWLock()
	if err != nil {
		return err
	}
	defer destroy(&err, rw)

	writes := max(cfg.iterations/10, 1)
	var stop atomic.Bool
	var readCycles atomic.Int64

	var readers errgroup.Group
	for r := 0; r < cfg.workers; r++ {
		readers.Go(func() error {
			for !stop.Load() {
				if err := rw.RLock(); err != nil {
					return err
				}
				readCycles.Add(1)
				if err := rw.Unlock(); err != nil {
					return err
				}
			}
			return nil
		})
	}

	writerDone := make(chan error, 1)
	go func() {
		for i := 0; i < writes; i++ {
			if err := rw.Lock(); err != nil {
				writerDone <- err
				return
			}
			if err := rw.Unlock(); err != nil {
				writerDone <- err
				return
			}
		}
		writerDone <- nil
	}()

	var result error
	starved := false
	select {
	case result = <-writerDone:
	case <-time.After(30 * time.Second):
		starved = true
		result = fmt.Errorf("writer starved: fewer than %d writes in 30s", writes)
	}
	stop.Store(true)
	if err := readers.Wait(); err != nil && result == nil {
		result = err
	}
	if starved {
		// Readers have stopped, so the writer finishes now.
		<-writerDone
	}

	if cfg.verbose {
		out.detail("%d writes against %d read cycles", writes, readCycles.Load())
	}
	return result
}

// stressSemaphore checks that n posts release exactly n waits.
func stressSemaphore(cfg *stressConfig, out *reporter) (err error) {
	sem, err := rtsync.NewSemaphore(0)
	if err != nil {
		return err
	}
	defer destroy(&err, sem)

	n := cfg.workers * 16
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(sem.Wait)
		g.Go(sem.Post)
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := sem.TryWait(); !errors.Is(err, rtsync.ErrBusy) {
		return fmt.Errorf("count not zero after %d posts and waits (TryWait = %v)", n, err)
	}
	if cfg.verbose {
		out.detail("%d posts, %d waits", n, n)
	}
	return nil
}

// stressThreads creates threads concurrently, joins half and detaches the
// rest, and checks every handle is reclaimed.
func stressThreads(cfg *stressConfig, out *reporter) error {
	baseline := rtsync.GetStats().ThreadsLive
	n := cfg.workers * 8
	var refused atomic.Int64

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i // per-iteration copy (Go 1.21 loop semantics)
		g.Go(func() error {
			t, err := rtsync.CreateThread(func(arg any) any { return arg }, i)
			var tce *rtsync.ThreadCreationError
			if errors.As(err, &tce) {
				refused.Add(1)
				return nil
			}
			if err != nil {
				return err
			}
			if i%2 == 0 {
				return t.Detach()
			}
			got, err := t.Join()
			if err != nil {
				return err
			}
			if got != i {
				return fmt.Errorf("thread %d joined with %v", i, got)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	deadline := time.Now().Add(10 * time.Second)
	for rtsync.GetStats().ThreadsLive != baseline {
		if time.Now().After(deadline) {
			return fmt.Errorf("%d thread handles leaked", rtsync.GetStats().ThreadsLive-baseline)
		}
		time.Sleep(time.Millisecond)
	}

	if cfg.verbose {
		out.detail("%d threads, %d refused by the host", n, refused.Load())
	}
	return nil
}
