package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/guardrail-ml/gce/pkg/gce"
)

// Store is a filesystem implementation of the gce.ReportStore interface
type Store struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem store
type Config struct {
	BaseDir   string // Base directory for storing report artifacts
	URLPrefix string // Optional URL prefix for download URLs
}

// New creates a new filesystem report store
func New(config Config) (gce.ReportStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Store{
		baseDir:   config.BaseDir,
		urlPrefix: config.URLPrefix,
	}, nil
}

// Upload writes an artifact to the filesystem
func (s *Store) Upload(ctx context.Context, key string, reader io.Reader) error {
	filePath := filepath.Join(s.baseDir, key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Download reads an artifact from the filesystem
func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(s.baseDir, key))
	if os.IsNotExist(err) {
		return nil, gce.ErrReportNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes an artifact and any directories left empty
func (s *Store) Delete(ctx context.Context, key string) error {
	filePath := filepath.Join(s.baseDir, key)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return gce.ErrReportNotFound
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.cleanupEmptyDirectories(filepath.Dir(filePath))

	return nil
}

// GetMeta retrieves metadata for a stored artifact
func (s *Store) GetMeta(ctx context.Context, key string) (*gce.ReportMeta, error) {
	filePath := filepath.Join(s.baseDir, key)

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, gce.ErrReportNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	// Detect content type from the first bytes
	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	return &gce.ReportMeta{
		Key:         key,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
	}, nil
}

// GetDownloadURL returns a URL for downloading an artifact when a URL
// prefix is configured
func (s *Store) GetDownloadURL(ctx context.Context, key string) (string, error) {
	if s.urlPrefix == "" {
		return "", &gce.StoreError{Store: "fs", Key: key, Op: "download-url", Err: gce.ErrDirectAccessOnly}
	}
	return fmt.Sprintf("%s/download/%s", s.urlPrefix, key), nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (s *Store) cleanupEmptyDirectories(dir string) {
	if dir == s.baseDir {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			s.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
