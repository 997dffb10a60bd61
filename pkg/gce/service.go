package gce

import (
	"context"

	"github.com/google/uuid"
)

// BackendInfo reports which backend is active and why it was selected.
// It is intentionally flat so the CLI can print it as key: value lines.
type BackendInfo struct {
	Backend  string `json:"backend"`
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

// ComputeVerdictRequest carries the parameters for a verdict computation
// built from raw values rather than a pre-assembled bundle.
type ComputeVerdictRequest struct {
	Theta      float64
	Patterns   []string
	Rule       string
	JBaselines map[string]float64
	JComposed  float64
	Objective  Objective
}

// ExportReportRequest describes a report export.
type ExportReportRequest struct {
	RunID  uuid.UUID
	Format ReportFormat
	// Store selects a configured report store by name. Empty means the
	// default store.
	Store string
	// Title overrides the default report title.
	Title string
}

// ReportFormat selects the rendering of an exported report.
type ReportFormat string

const (
	ReportFormatText     ReportFormat = "text"
	ReportFormatMarkdown ReportFormat = "markdown"
	ReportFormatJSON     ReportFormat = "json"
)

// ExportedReport describes where an exported report landed.
type ExportedReport struct {
	Key         string `json:"key"`
	Store       string `json:"store"`
	ContentType string `json:"content_type"`
	DownloadURL string `json:"download_url,omitempty"`
}

// Service is the main interface of the composability explorer.
type Service interface {
	// Verdict operations
	ComputeVerdict(ctx context.Context, bundle RunBundle) (*Run, error)
	ComputeVerdictFromParams(ctx context.Context, req ComputeVerdictRequest) (*Run, error)

	// Lightweight helpers
	AnalyzeComposition(bundle RunBundle) (*Analysis, error)
	FHBounds(theta, epsilon float64) (lower, upper float64)
	FormatVerdict(verdict *Verdict) string
	BackendInfo() BackendInfo

	// Run history
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, req ListRunsRequest) ([]*Run, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error

	// Reports
	ExportReport(ctx context.Context, req ExportReportRequest) (*ExportedReport, error)
	RegisterReportStore(name string, store ReportStore)
	GetReportStore(name string) (ReportStore, error)

	// Narrative
	ExplainVerdict(ctx context.Context, bundle *RunBundle, verdict *Verdict) (string, error)
}
