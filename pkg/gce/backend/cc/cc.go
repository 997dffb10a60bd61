// Package cc is the cc-framework verdict backend. The cc-framework is an
// optional, heavier installation that exposes the same verdict contract
// over HTTP; this package is a thin client for it.
//
// Availability is probed at construction time: the backend exists for a
// process only when CC_FRAMEWORK_URL is set and the service answers the
// info endpoint. Construction failure is the resolver's signal to fall
// back to the local backend.
package cc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/guardrail-ml/gce/pkg/gce"
	"github.com/guardrail-ml/gce/pkg/gce/backend"
)

// EnvFrameworkURL points at the cc-framework service, e.g.
// "http://localhost:8391". Unset means the backend is not installed.
const EnvFrameworkURL = "CC_FRAMEWORK_URL"

const (
	verdictPath = "/api/v1/verdicts"
	infoPath    = "/api/v1/backend-info"

	defaultTimeout = 10 * time.Second
	probeTimeout   = 2 * time.Second
)

func init() {
	backend.Register(backend.NameCC, func() (gce.Backend, error) {
		return NewFromEnv()
	})
}

// Config for the cc-framework client.
type Config struct {
	// BaseURL of the cc-framework service. Required.
	BaseURL string
	// Timeout bounds each verdict call. Defaults to 10s.
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	// SkipProbe disables the construction-time reachability check.
	SkipProbe bool
}

// Backend delegates verdict computation to a cc-framework service.
type Backend struct {
	baseURL string
	client  *http.Client
}

// NewFromEnv constructs the backend from CC_FRAMEWORK_URL. It returns an
// error when the variable is unset, so resolution treats the backend as
// unavailable rather than failing the process.
func NewFromEnv() (*Backend, error) {
	raw := strings.TrimSpace(os.Getenv(EnvFrameworkURL))
	if raw == "" {
		return nil, fmt.Errorf("%s is not set; cc-framework backend is not installed", EnvFrameworkURL)
	}
	return New(Config{BaseURL: raw})
}

// New constructs and, unless disabled, probes the cc-framework client.
func New(cfg Config) (*Backend, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid cc-framework URL %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	b := &Backend{
		baseURL: strings.TrimRight(u.String(), "/"),
		client:  client,
	}

	if !cfg.SkipProbe {
		if err := b.probe(); err != nil {
			return nil, fmt.Errorf("cc-framework at %s is not reachable: %w", b.baseURL, err)
		}
	}

	return b, nil
}

func (b *Backend) Name() string { return backend.NameCC }

func (b *Backend) Provider() string { return b.baseURL + infoPath }

// probe checks that the service answers its info endpoint. It keeps a
// short deadline so a missing installation does not stall startup.
func (b *Backend) probe() error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+infoPath, nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("info endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// ComputeVerdict posts the bundle to the cc-framework service and
// decodes its verdict. The wire shapes match the fallback backend, so
// callers cannot tell the backends apart beyond backend-info.
func (b *Backend) ComputeVerdict(ctx context.Context, bundle *gce.RunBundle) (*gce.Verdict, error) {
	body, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bundle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+verdictPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cc-framework request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read cc-framework response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("cc-framework rejected bundle: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("cc-framework returned status %d", resp.StatusCode)
	}

	var verdict gce.Verdict
	if err := json.Unmarshal(payload, &verdict); err != nil {
		return nil, fmt.Errorf("failed to decode cc-framework verdict: %w", err)
	}

	return &verdict, nil
}
