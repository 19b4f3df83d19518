// Package lifecycle coordinates subsystem startup, readiness probing and
// graceful shutdown.
package lifecycle

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Probe checks that a dependency can currently serve requests.
type Probe func(ctx context.Context) error

// Coordinator runs startup hooks concurrently, holds readiness probes, and
// cancels its context on shutdown so shutdown hooks can release resources.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup
	ready      atomic.Bool

	probesMu sync.RWMutex
	probes   map[string]Probe
}

// New creates a Coordinator with a cancellable background context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		probes: make(map[string]Probe),
	}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in its own goroutine. WaitForStartup waits for it.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown runs fn in its own goroutine. Hooks block on
// <-c.Context().Done() before releasing resources.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

// AddProbe registers a named readiness probe, replacing any probe of the same name.
func (c *Coordinator) AddProbe(name string, probe Probe) {
	c.probesMu.Lock()
	defer c.probesMu.Unlock()
	c.probes[name] = probe
}

// Ready reports whether every startup hook has returned.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// Check runs every probe and returns the failures by name.
// An empty map means all dependencies are reachable.
func (c *Coordinator) Check(ctx context.Context) map[string]error {
	c.probesMu.RLock()
	probes := maps.Clone(c.probes)
	c.probesMu.RUnlock()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		failures = make(map[string]error)
	)

	for _, name := range slices.Sorted(maps.Keys(probes)) {
		wg.Go(func() {
			if err := probes[name](ctx); err != nil {
				mu.Lock()
				failures[name] = err
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	return failures
}

// WaitForStartup blocks until all startup hooks return, then marks the
// coordinator ready.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.ready.Store(true)
}

// Shutdown cancels the context and waits up to timeout for shutdown hooks.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.ready.Store(false)
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("shutdown hooks still running after %v", timeout)
	}
}
