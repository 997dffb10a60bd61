package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/guardrail-ml/gce/pkg/gce"
)

// Store is an in-memory implementation of the gce.ReportStore interface
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
	updated map[string]time.Time
}

// New creates a new in-memory report store
func New() gce.ReportStore {
	return &Store{
		objects: make(map[string][]byte),
		updated: make(map[string]time.Time),
	}
}

// Upload stores an artifact directly
func (s *Store) Upload(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = data
	s.updated[key] = time.Now().UTC()
	return nil
}

// Download retrieves an artifact directly
func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.objects[key]
	if !exists {
		return nil, gce.ErrReportNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes an artifact
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; !exists {
		return gce.ErrReportNotFound
	}

	delete(s.objects, key)
	delete(s.updated, key)
	return nil
}

// GetMeta retrieves metadata for a stored artifact
func (s *Store) GetMeta(ctx context.Context, key string) (*gce.ReportMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.objects[key]
	if !exists {
		return nil, gce.ErrReportNotFound
	}

	return &gce.ReportMeta{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: "application/octet-stream",
		UpdatedAt:   s.updated[key],
	}, nil
}

// GetDownloadURL returns a URL for downloading an artifact.
// In-memory implementation doesn't use URLs.
func (s *Store) GetDownloadURL(ctx context.Context, key string) (string, error) {
	return "", &gce.StoreError{Store: "memory", Key: key, Op: "download-url", Err: gce.ErrDirectAccessOnly}
}
