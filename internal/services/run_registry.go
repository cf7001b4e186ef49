package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/refyne-backend/internal/domain"
	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type runEntry struct {
	mu  sync.Mutex
	run types.ProcessingRun
}

// RunRegistry holds the in-memory ProcessingRun of each project. A finished
// run is kept for the retention window and then reported as idle.
type RunRegistry struct {
	mu        sync.Mutex
	runs      map[uuid.UUID]*runEntry
	clock     Clock
	retention time.Duration
}

func NewRunRegistry(clock Clock, retention time.Duration) *RunRegistry {
	if clock == nil {
		clock = systemClock{}
	}
	if retention <= 0 {
		retention = 5 * time.Minute
	}
	return &RunRegistry{
		runs:      make(map[uuid.UUID]*runEntry),
		clock:     clock,
		retention: retention,
	}
}

// Begin installs a fresh run for projectID unless one is still processing.
func (r *RunRegistry) Begin(projectID uuid.UUID, total int) (types.ProcessingRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.runs[projectID]; ok {
		e.mu.Lock()
		active := e.run.Status == types.RunStatusProcessing
		e.mu.Unlock()
		if active {
			return types.ProcessingRun{}, perrors.ErrConflict
		}
	}
	now := r.clock.Now()
	run := types.IdleRun(projectID)
	run.Status = types.RunStatusProcessing
	run.Total = total
	run.StartedAt = &now
	r.runs[projectID] = &runEntry{run: run}
	return run.Clone(), nil
}

// Active reports whether projectID has a run in the processing state.
func (r *RunRegistry) Active(projectID uuid.UUID) bool {
	return r.Get(projectID).Status == types.RunStatusProcessing
}

func (r *RunRegistry) Get(projectID uuid.UUID) types.ProcessingRun {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.runs[projectID]
	if !ok {
		return types.IdleRun(projectID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if r.expired(e.run) {
		delete(r.runs, projectID)
		return types.IdleRun(projectID)
	}
	return e.run.Clone()
}

// Update applies fn to the live run under that project's lock and returns a
// snapshot. ok is false when the project has no run.
func (r *RunRegistry) Update(projectID uuid.UUID, fn func(run *types.ProcessingRun)) (types.ProcessingRun, bool) {
	r.mu.Lock()
	e, ok := r.runs[projectID]
	r.mu.Unlock()
	if !ok {
		return types.IdleRun(projectID), false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.run)
	return e.run.Clone(), true
}

// Finish marks the run done and starts its retention window.
func (r *RunRegistry) Finish(projectID uuid.UUID) (types.ProcessingRun, bool) {
	now := r.clock.Now()
	return r.Update(projectID, func(run *types.ProcessingRun) {
		run.Status = types.RunStatusDone
		run.CurrentDocument = nil
		run.FinishedAt = &now
	})
}

// Sweep drops every finished run whose retention window has elapsed.
func (r *RunRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.runs {
		e.mu.Lock()
		if r.expired(e.run) {
			delete(r.runs, id)
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// StartSweeper runs Sweep every interval until ctx is done.
func (r *RunRegistry) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				r.Sweep()
			}
		}
	}()
}

func (r *RunRegistry) expired(run types.ProcessingRun) bool {
	if run.Status != types.RunStatusDone || run.FinishedAt == nil {
		return false
	}
	return !r.clock.Now().Before(run.FinishedAt.Add(r.retention))
}
