package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/guardrail-ml/gce/pkg/gce"
)

// Repository implements gce.RunRepository using in-memory storage.
type Repository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*gce.Run
}

// New creates a new in-memory repository.
func New() gce.RunRepository {
	return &Repository{
		runs: make(map[uuid.UUID]*gce.Run),
	}
}

func (r *Repository) CreateRun(ctx context.Context, run *gce.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	runCopy := *run
	r.runs[run.ID] = &runCopy

	return nil
}

func (r *Repository) GetRun(ctx context.Context, id uuid.UUID) (*gce.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[id]
	if !exists {
		return nil, gce.ErrRunNotFound
	}

	runCopy := *run
	return &runCopy, nil
}

func (r *Repository) ListRuns(ctx context.Context, req gce.ListRunsRequest) ([]*gce.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var runs []*gce.Run
	for _, run := range r.runs {
		if req.Rule != "" && run.Bundle.Rule != req.Rule {
			continue
		}
		if req.Label != "" && run.Verdict.Label != req.Label {
			continue
		}
		runCopy := *run
		runs = append(runs, &runCopy)
	}

	// Newest first; IDs break ties so pagination stays stable.
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID.String() < runs[j].ID.String()
	})

	if req.Limit > 0 && len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	return runs, nil
}

func (r *Repository) DeleteRun(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[id]; !exists {
		return gce.ErrRunNotFound
	}

	delete(r.runs, id)
	return nil
}
