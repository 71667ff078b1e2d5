package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrJobRunning is returned when a job starts while its previous run is
// still in progress.
var ErrJobRunning = errors.New("job already running")

// ExportedJobGuard lets _test packages exercise the guard.
type ExportedJobGuard = jobGuard

// jobGuard allows one run per job name. Scheduled exports use it so a slow
// run makes the next tick fail fast instead of piling up, and Stop can wait
// for the run in flight.
type jobGuard struct {
	mu      sync.Mutex
	started map[string]time.Time
	wg      sync.WaitGroup
}

// Begin claims name and returns the func that releases it. Calling the
// release func more than once is harmless.
func (g *jobGuard) Begin(name string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if at, ok := g.started[name]; ok {
		return nil, fmt.Errorf("%s started %s ago: %w", name, time.Since(at).Round(time.Millisecond), ErrJobRunning)
	}
	if g.started == nil {
		g.started = make(map[string]time.Time)
	}
	g.started[name] = time.Now()
	g.wg.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.started, name)
			g.mu.Unlock()
			g.wg.Done()
		})
	}, nil
}

// Running reports whether name holds the guard.
func (g *jobGuard) Running(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.started[name]
	return ok
}

// Wait blocks until no job is running. It returns ctx.Err() if ctx ends
// first.
func (g *jobGuard) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
