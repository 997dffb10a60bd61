package gce

import (
	"time"

	"github.com/google/uuid"
)

// Objective is the direction of optimisation for the J metric.
type Objective string

const (
	// ObjectiveMinimize means smaller J is better (e.g. leakage rates).
	ObjectiveMinimize Objective = "minimize"
	// ObjectiveMaximize means larger J is better (e.g. detection power).
	ObjectiveMaximize Objective = "maximize"
)

// Label is the qualitative classification of a composability coefficient.
type Label string

const (
	// LabelConstructive marks compositions that beat the best singleton.
	LabelConstructive Label = "Constructive"
	// LabelIndependent marks compositions within the neutral band around CC=1.
	LabelIndependent Label = "Independent"
	// LabelDestructive marks compositions that underperform the best singleton.
	LabelDestructive Label = "Destructive"
)

// IndependentTol is the symmetric tolerance band around CC=1.0 inside
// which a composition is classified as Independent.
const IndependentTol = 0.05

// RunBundle describes a single compositional experiment: the composition
// rule and knob, the patterns involved, and the measured J metrics for
// the singleton baselines and the composed system.
type RunBundle struct {
	// Theta is the composition knob / scenario parameter. Typically in
	// [0, 1] but only required to be finite.
	Theta float64 `json:"theta"`
	// Patterns are human-readable identifiers for the patterns or
	// guardrails participating in the composition.
	Patterns []string `json:"patterns,omitempty"`
	// Rule is the label of the composition rule, e.g. "SEQUENTIAL(DFA→RR)".
	Rule string `json:"rule"`
	// JBaselines holds singleton J values indexed by pattern name.
	JBaselines map[string]float64 `json:"J_baselines"`
	// JComposed is the J value of the composed system at this theta.
	JComposed float64 `json:"J_composed"`
	// Objective is the direction of optimisation. Defaults to minimize.
	Objective Objective `json:"objective,omitempty"`
}

// Verdict is the result of a composability analysis for one RunBundle.
type Verdict struct {
	// CC is the composability coefficient (finite, >= 0).
	CC float64 `json:"CC"`
	// Label classifies CC as Constructive, Independent or Destructive.
	Label Label `json:"label"`
	// Recommendation is a one-sentence narrative tying CC to the bundle.
	Recommendation string `json:"recommendation"`
	// NextTests are suggested follow-up experiments.
	NextTests []string `json:"next_tests"`
	// Checklist lists instrumentation and sanity checks to verify.
	Checklist []string `json:"checklist"`
}

// Analysis is a lightweight summary of a bundle, computed without
// classification or recommendations. BestSingleton is nil when the
// bundle carries no baselines.
type Analysis struct {
	Theta         float64  `json:"theta"`
	Objective     Objective `json:"objective"`
	BestSingleton *float64 `json:"best_singleton"`
	CC            float64  `json:"CC"`
}

// Run is a persisted verdict computation: the input bundle, the verdict,
// and which backend produced it.
type Run struct {
	ID        uuid.UUID `json:"id"`
	Bundle    RunBundle `json:"bundle"`
	Verdict   Verdict   `json:"verdict"`
	Backend   string    `json:"backend"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportMeta describes a stored report artifact.
type ReportMeta struct {
	Key         string            `json:"key"`
	Size        int64             `json:"size"`
	ContentType string            `json:"content_type"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ListRunsRequest filters and bounds a run-history listing.
type ListRunsRequest struct {
	Rule  string
	Label Label
	Limit int
}
