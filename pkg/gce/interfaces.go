package gce

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Backend is an interchangeable implementation of verdict computation.
// The fallback backend ships with this module; the cc-framework backend
// is optional and reached over the network when installed and preferred.
type Backend interface {
	// Name identifies the backend, e.g. "fallback" or "cc-framework".
	Name() string

	// Provider is the implementation path surfaced by backend-info,
	// e.g. "gce/backend/fallback".
	Provider() string

	// ComputeVerdict turns a validated bundle into a verdict.
	ComputeVerdict(ctx context.Context, bundle *RunBundle) (*Verdict, error)
}

// RunRepository persists verdict computations for later inspection.
type RunRepository interface {
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, req ListRunsRequest) ([]*Run, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error
}

// ReportStore holds exported report artifacts (one-pagers, JSON
// payloads). Implementations cover in-memory, filesystem and S3.
type ReportStore interface {
	// Upload stores an artifact under the given key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download retrieves an artifact.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an artifact.
	Delete(ctx context.Context, key string) error

	// GetMeta retrieves metadata for a stored artifact.
	GetMeta(ctx context.Context, key string) (*ReportMeta, error)

	// GetDownloadURL returns a URL for fetching the artifact, when the
	// store supports URL-based access (e.g. S3 presigned URLs).
	GetDownloadURL(ctx context.Context, key string) (string, error)
}

// Explainer produces a human-readable narrative for a verdict. The
// default implementation calls a chat-completions API and degrades to a
// deterministic offline summary.
type Explainer interface {
	Explain(ctx context.Context, bundle *RunBundle, verdict *Verdict) (string, error)
}
