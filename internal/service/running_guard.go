package service

import (
	"context"
	"sync"
)

// ExportedRunningGuard is an exported alias so _test packages can exercise the guard.
type ExportedRunningGuard = runningJobsGuard

// ─────────────────────────────────────────────────────────────
// runningJobsGuard — one run per import job at a time
// ─────────────────────────────────────────────────────────────

// runningJobsGuard tracks import jobs that are mid-run. The same job can
// be triggered from several places at once (manual run, cron schedule,
// file watch); extra triggers bounce instead of stacking runs.
type runningJobsGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock claims jobID for a run. It returns false when a run for that
// job is already in flight.
func (g *runningJobsGuard) TryLock(jobID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[jobID]; ok {
		return false
	}
	g.running[jobID] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases jobID when its run finishes. Paired with a TryLock
// that returned true.
func (g *runningJobsGuard) Unlock(jobID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, jobID)
	g.wg.Done()
}

// WaitAll blocks until every in-flight run drains or ctx is cancelled.
// Shutdown calls this before closing the HTTP listener so imports are
// not cut off mid-write.
func (g *runningJobsGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
