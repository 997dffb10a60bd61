// Package fallback is the local verdict backend. It ships with the core
// module and is always constructible, which makes it the safety net of
// backend resolution.
package fallback

import (
	"context"
	"math"

	"github.com/guardrail-ml/gce/pkg/gce"
	"github.com/guardrail-ml/gce/pkg/gce/backend"
)

func init() {
	backend.Register(backend.NameFallback, func() (gce.Backend, error) {
		return New(), nil
	})
}

// Backend computes verdicts in-process from the core CC logic.
type Backend struct{}

// New creates the local fallback backend.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string { return backend.NameFallback }

func (b *Backend) Provider() string { return "gce/backend/fallback" }

// ComputeVerdict derives the verdict locally:
//
//  1. CC from singleton baselines and the composed J.
//  2. Classification into Constructive / Independent / Destructive.
//  3. Deterministic recommendation, next tests and checklist.
//
// Non-finite CC values (no baselines, or a zero-valued best singleton)
// are reported as the neutral 1.0 so the verdict keeps its finite-CC
// invariant; they classify as Independent and the recommendation text
// calls out the degenerate reference. A negative ratio clamps to 0,
// the strongest constructive reading.
func (b *Backend) ComputeVerdict(_ context.Context, bundle *gce.RunBundle) (*gce.Verdict, error) {
	cc := gce.ComputeCC(bundle.JBaselines, bundle.JComposed, bundle.Objective)
	label := gce.ClassifyCC(cc, gce.IndependentTol)

	recommendation := gce.MakeRecommendation(bundle, cc, label)
	nextTests := gce.MakeNextTests(bundle, cc, label)
	checklist := gce.MakeChecklist(bundle)

	reported := cc
	if math.IsNaN(reported) || math.IsInf(reported, 0) {
		reported = 1.0
	} else if reported < 0 {
		reported = 0
	}

	return &gce.Verdict{
		CC:             reported,
		Label:          label,
		Recommendation: recommendation,
		NextTests:      nextTests,
		Checklist:      checklist,
	}, nil
}
