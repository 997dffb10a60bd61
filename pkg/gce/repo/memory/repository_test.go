package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/guardrail-ml/gce/pkg/gce"
	"github.com/guardrail-ml/gce/pkg/gce/repo/memory"
)

func newRun(rule string, label gce.Label, createdAt time.Time) *gce.Run {
	return &gce.Run{
		ID: uuid.New(),
		Bundle: gce.RunBundle{
			Theta:      0.5,
			Rule:       rule,
			JBaselines: map[string]float64{"A": 0.3},
			JComposed:  0.28,
			Objective:  gce.ObjectiveMinimize,
		},
		Verdict:   gce.Verdict{CC: 0.93, Label: label},
		Backend:   "fallback",
		Reason:    "unavailable",
		CreatedAt: createdAt,
	}
}

func TestCreateAndGetRun(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	run := newRun("SEQUENTIAL(DFA→RR)", gce.LabelConstructive, time.Now().UTC())
	require.NoError(t, repo.CreateRun(ctx, run))

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Bundle.Rule, got.Bundle.Rule)

	// The stored run is isolated from later mutations of the original.
	run.Backend = "mutated"
	got, err = repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "fallback", got.Backend)
}

func TestGetRunNotFound(t *testing.T) {
	repo := memory.New()

	_, err := repo.GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gce.ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	base := time.Now().UTC()

	oldest := newRun("SEQUENTIAL(DFA→RR)", gce.LabelConstructive, base.Add(-2*time.Hour))
	middle := newRun("PARALLEL(A|B)", gce.LabelDestructive, base.Add(-time.Hour))
	newest := newRun("SEQUENTIAL(DFA→RR)", gce.LabelIndependent, base)
	for _, run := range []*gce.Run{oldest, middle, newest} {
		require.NoError(t, repo.CreateRun(ctx, run))
	}

	t.Run("newest first", func(t *testing.T) {
		runs, err := repo.ListRuns(ctx, gce.ListRunsRequest{})
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, newest.ID, runs[0].ID)
		assert.Equal(t, middle.ID, runs[1].ID)
		assert.Equal(t, oldest.ID, runs[2].ID)
	})

	t.Run("filter by rule", func(t *testing.T) {
		runs, err := repo.ListRuns(ctx, gce.ListRunsRequest{Rule: "PARALLEL(A|B)"})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, middle.ID, runs[0].ID)
	})

	t.Run("filter by label", func(t *testing.T) {
		runs, err := repo.ListRuns(ctx, gce.ListRunsRequest{Label: gce.LabelConstructive})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, oldest.ID, runs[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		runs, err := repo.ListRuns(ctx, gce.ListRunsRequest{Limit: 2})
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, newest.ID, runs[0].ID)
	})

	t.Run("no matches", func(t *testing.T) {
		runs, err := repo.ListRuns(ctx, gce.ListRunsRequest{Rule: "missing"})
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func TestDeleteRun(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	run := newRun("SEQUENTIAL(DFA→RR)", gce.LabelConstructive, time.Now().UTC())
	require.NoError(t, repo.CreateRun(ctx, run))

	require.NoError(t, repo.DeleteRun(ctx, run.ID))
	_, err := repo.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, gce.ErrRunNotFound)

	assert.ErrorIs(t, repo.DeleteRun(ctx, run.ID), gce.ErrRunNotFound)
}
