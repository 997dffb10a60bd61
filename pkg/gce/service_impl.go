package gce

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	backend      Backend
	backendInfo  BackendInfo
	repository   RunRepository
	reportStores map[string]ReportStore
	defaultStore string
	explainer    Explainer
	now          func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithBackend sets the verdict backend. The reason should come from the
// resolver that selected it; it is surfaced verbatim by BackendInfo.
func WithBackend(b Backend, reason string) Option {
	return func(s *service) {
		s.backend = b
		s.backendInfo = BackendInfo{
			Backend:  b.Name(),
			Provider: b.Provider(),
			Reason:   reason,
		}
	}
}

// WithRepository sets the run-history repository. Without one, verdicts
// are computed but not persisted.
func WithRepository(repo RunRepository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithReportStore adds a named report store. The first store added
// becomes the default.
func WithReportStore(name string, store ReportStore) Option {
	return func(s *service) {
		if s.reportStores == nil {
			s.reportStores = make(map[string]ReportStore)
		}
		if len(s.reportStores) == 0 {
			s.defaultStore = name
		}
		s.reportStores[name] = store
	}
}

// WithExplainer sets the AI explainer.
func WithExplainer(e Explainer) Option {
	return func(s *service) {
		s.explainer = e
	}
}

// withClock overrides run timestamps in tests.
func withClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options. A backend
// is required; everything else is optional.
func New(options ...Option) (Service, error) {
	s := &service{
		reportStores: make(map[string]ReportStore),
		now:          func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		option(s)
	}

	if s.backend == nil {
		return nil, ErrNoBackend
	}

	return s, nil
}

// Verdict operations

func (s *service) ComputeVerdict(ctx context.Context, bundle RunBundle) (*Run, error) {
	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	verdict, err := s.backend.ComputeVerdict(ctx, &bundle)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", s.backend.Name(), err)
	}
	if err := verdict.Validate(); err != nil {
		return nil, fmt.Errorf("backend %s returned %w", s.backend.Name(), err)
	}

	run := &Run{
		ID:        uuid.New(),
		Bundle:    bundle,
		Verdict:   *verdict,
		Backend:   s.backendInfo.Backend,
		Reason:    s.backendInfo.Reason,
		CreatedAt: s.now(),
	}

	if s.repository != nil {
		if err := s.repository.CreateRun(ctx, run); err != nil {
			return nil, &RunError{RunID: run.ID, Op: "create", Err: err}
		}
	}

	return run, nil
}

func (s *service) ComputeVerdictFromParams(ctx context.Context, req ComputeVerdictRequest) (*Run, error) {
	return s.ComputeVerdict(ctx, RunBundle{
		Theta:      req.Theta,
		Patterns:   req.Patterns,
		Rule:       req.Rule,
		JBaselines: req.JBaselines,
		JComposed:  req.JComposed,
		Objective:  req.Objective,
	})
}

// Lightweight helpers

// AnalyzeComposition computes CC and the best singleton from a bundle
// without classification, recommendations, or persistence. Unlike
// ComputeVerdict it tolerates minimal bundles: only theta, baselines,
// composed J and objective are consulted.
func (s *service) AnalyzeComposition(bundle RunBundle) (*Analysis, error) {
	obj, err := ParseObjective(string(bundle.Objective))
	if err != nil {
		return nil, &BundleError{Field: "objective", Err: err}
	}

	analysis := &Analysis{
		Theta:     bundle.Theta,
		Objective: obj,
		CC:        ComputeCC(bundle.JBaselines, bundle.JComposed, obj),
	}

	if best, ok := BestSingleton(bundle.JBaselines, obj); ok {
		analysis.BestSingleton = &best
	}

	return analysis, nil
}

// FHBounds returns symmetric Fréchet–Hoeffding-style bounds around theta
// on [0, 1]: (max(0, θ−|ε|), min(1, θ+|ε|)). It exists so UIs and
// exporters can show "θ ± ε" bands without the full bounds machinery.
func (s *service) FHBounds(theta, epsilon float64) (float64, float64) {
	return FHBounds(theta, epsilon)
}

// FHBounds is the package-level form of Service.FHBounds.
func FHBounds(theta, epsilon float64) (lower, upper float64) {
	eps := math.Abs(epsilon)
	lower = math.Max(0.0, theta-eps)
	upper = math.Min(1.0, theta+eps)
	return lower, upper
}

// FormatVerdict renders a one-line human-friendly summary, e.g.
//
//	Constructive (CC=0.93): Composition reduces effective leak. Next: test A, test B.
func (s *service) FormatVerdict(verdict *Verdict) string {
	return FormatVerdict(verdict)
}

// FormatVerdict is the package-level form of Service.FormatVerdict.
func FormatVerdict(verdict *Verdict) string {
	label := "?"
	cc := math.NaN()
	rec := ""
	var tests []string

	if verdict != nil {
		label = string(verdict.Label)
		if label == "" {
			label = "?"
		}
		cc = verdict.CC
		rec = verdict.Recommendation
		tests = verdict.NextTests
	}

	preview := "no follow-ups"
	if len(tests) > 0 {
		if len(tests) > 2 {
			tests = tests[:2]
		}
		preview = strings.Join(tests, ", ")
	}

	return fmt.Sprintf("%s (CC=%.2f): %s Next: %s.", label, cc, rec, preview)
}

func (s *service) BackendInfo() BackendInfo {
	return s.backendInfo
}

// Run history

func (s *service) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	if s.repository == nil {
		return nil, ErrNoRepository
	}
	return s.repository.GetRun(ctx, id)
}

func (s *service) ListRuns(ctx context.Context, req ListRunsRequest) ([]*Run, error) {
	if s.repository == nil {
		return nil, ErrNoRepository
	}
	return s.repository.ListRuns(ctx, req)
}

func (s *service) DeleteRun(ctx context.Context, id uuid.UUID) error {
	if s.repository == nil {
		return ErrNoRepository
	}
	return s.repository.DeleteRun(ctx, id)
}

// Report stores

func (s *service) RegisterReportStore(name string, store ReportStore) {
	if len(s.reportStores) == 0 {
		s.defaultStore = name
	}
	s.reportStores[name] = store
}

func (s *service) GetReportStore(name string) (ReportStore, error) {
	if name == "" {
		name = s.defaultStore
	}
	store, ok := s.reportStores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReportStoreNotFound, name)
	}
	return store, nil
}

// Narrative

func (s *service) ExplainVerdict(ctx context.Context, bundle *RunBundle, verdict *Verdict) (string, error) {
	if s.explainer == nil {
		return OfflineExplanation(bundle, verdict), nil
	}
	return s.explainer.Explain(ctx, bundle, verdict)
}
