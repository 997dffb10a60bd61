package gce_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/guardrail-ml/gce/pkg/gce"
)

func TestMakeRecommendation(t *testing.T) {
	t.Run("constructive with baselines", func(t *testing.T) {
		b := validBundle()
		got := gce.MakeRecommendation(&b, 0.93, gce.LabelConstructive)

		assert.Equal(t,
			"Lean into the synergy. Rule 'SEQUENTIAL(DFA→RR)' at θ=0.50 delivers 0.28 "+
				"vs singleton 'A'=0.3 (CC=0.93, objective=minimize). Patterns in play: demo.",
			got)
	})

	t.Run("destructive tone", func(t *testing.T) {
		b := validBundle()
		got := gce.MakeRecommendation(&b, 1.40, gce.LabelDestructive)
		assert.True(t, strings.HasPrefix(got, "Dial back the composition until diagnostics improve."))
	})

	t.Run("independent tone", func(t *testing.T) {
		b := validBundle()
		got := gce.MakeRecommendation(&b, 1.01, gce.LabelIndependent)
		assert.True(t, strings.HasPrefix(got, "Hold the line — the blend is neutral."))
	})

	t.Run("no baselines", func(t *testing.T) {
		b := validBundle()
		b.JBaselines = nil
		b.Patterns = nil
		got := gce.MakeRecommendation(&b, 1.0, gce.LabelIndependent)

		assert.Contains(t, got, "with no singleton baselines")
		assert.Contains(t, got, "treat CC=1.00 as relative to a neutral reference")
		assert.NotContains(t, got, "Patterns in play")
	})

	t.Run("maximize picks largest baseline", func(t *testing.T) {
		b := validBundle()
		b.Objective = gce.ObjectiveMaximize
		got := gce.MakeRecommendation(&b, 0.5, gce.LabelConstructive)
		assert.Contains(t, got, "vs singleton 'B'=0.4")
	})
}

func TestMakeNextTests(t *testing.T) {
	t.Run("constructive", func(t *testing.T) {
		b := validBundle()
		tests := gce.MakeNextTests(&b, 0.93, gce.LabelConstructive)

		require.Len(t, tests, 3)
		assert.Equal(t,
			"Expand the θ sweep around 0.50 for rule 'SEQUENTIAL(DFA→RR)' to map the constructive window.",
			tests[0])
		assert.Equal(t,
			"Run leave-one-pattern-out ablations for demo to verify their individual lifts.",
			tests[1])
		assert.Equal(t,
			"Re-evaluate singleton 'A' to confirm the minimize reference (0.3).",
			tests[2])
	})

	t.Run("destructive", func(t *testing.T) {
		b := validBundle()
		tests := gce.MakeNextTests(&b, 1.5, gce.LabelDestructive)

		require.Len(t, tests, 3)
		assert.Equal(t,
			"Re-run singleton 'A' (0.3) as the fallback while disabling rule 'SEQUENTIAL(DFA→RR)'.",
			tests[0])
		assert.Equal(t,
			"Probe lower θ values than 0.50 to find a safer operating point.",
			tests[1])
		assert.Contains(t, tests[2], "Audit the composed pipeline")
	})

	t.Run("independent", func(t *testing.T) {
		b := validBundle()
		tests := gce.MakeNextTests(&b, 1.0, gce.LabelIndependent)

		require.Len(t, tests, 3)
		assert.Equal(t,
			"Perform a finer θ sweep around 0.50 to confirm neutral behavior.",
			tests[0])
	})

	t.Run("no baselines pivots to establishing a reference", func(t *testing.T) {
		b := validBundle()
		b.JBaselines = nil

		constructive := gce.MakeNextTests(&b, 0.5, gce.LabelConstructive)
		assert.Contains(t, constructive[2], "Establish at least one singleton baseline")

		destructive := gce.MakeNextTests(&b, 1.5, gce.LabelDestructive)
		assert.Contains(t, destructive[0], "Define and measure a reference singleton baseline")

		independent := gce.MakeNextTests(&b, 1.0, gce.LabelIndependent)
		assert.Contains(t, independent[1], "Measure at least one singleton baseline")
	})
}

func TestMakeChecklist(t *testing.T) {
	t.Run("with baselines and patterns", func(t *testing.T) {
		b := validBundle()
		checklist := gce.MakeChecklist(&b)

		require.Len(t, checklist, 4)
		assert.Equal(t, "Confirm objective='minimize' aligns with how J is interpreted.", checklist[0])
		assert.Equal(t,
			"Ensure 2 singleton baselines use the same dataset and evaluation seed as the composition.",
			checklist[1])
		assert.Equal(t,
			"Document how θ=0.50 for rule 'SEQUENTIAL(DFA→RR)' was chosen.",
			checklist[2])
		assert.Equal(t, "Ensure instrumentation exists for patterns: demo.", checklist[3])
	})

	t.Run("without baselines or patterns", func(t *testing.T) {
		b := validBundle()
		b.JBaselines = nil
		b.Patterns = nil
		checklist := gce.MakeChecklist(&b)

		require.Len(t, checklist, 4)
		assert.Contains(t, checklist[1], "Record and compute at least one singleton baseline")
		assert.Equal(t, "Record why no pattern diagnostics were supplied.", checklist[3])
	})
}
