package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/guardrail-ml/gce/pkg/gce"
	"github.com/guardrail-ml/gce/pkg/gce/backend"
	"github.com/guardrail-ml/gce/pkg/gce/explain"
	"github.com/guardrail-ml/gce/pkg/gce/repo/memory"
	repopg "github.com/guardrail-ml/gce/pkg/gce/repo/postgres"
	fsstorage "github.com/guardrail-ml/gce/pkg/gce/storage/fs"
	memorystorage "github.com/guardrail-ml/gce/pkg/gce/storage/memory"
	s3storage "github.com/guardrail-ml/gce/pkg/gce/storage/s3"

	// Register the verdict backends with the resolver.
	_ "github.com/guardrail-ml/gce/pkg/gce/backend/cc"
	_ "github.com/guardrail-ml/gce/pkg/gce/backend/fallback"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top
// of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseType:       "memory",
		DefaultReportStore: "memory",
		ReportStores: []ReportStoreConfig{
			{
				Name:   "memory",
				Type:   "memory",
				Config: map[string]interface{}{},
			},
		},
		BackendPreference: backend.PreferenceFromEnv(),
		EnableAIExplainer: true,
	}
}

// ServerConfig represents server configuration for the gce service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Report store configuration
	DefaultReportStore string
	ReportStores       []ReportStoreConfig

	// Verdict backend selection
	BackendPreference backend.Preference

	// API options
	APISecret string // enables JWT auth on the HTTP API when set

	// Explainer options
	EnableAIExplainer bool
}

// ReportStoreConfig represents configuration for a report store
type ReportStoreConfig struct {
	Name   string
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	found := false
	for _, store := range c.ReportStores {
		if store.Name == c.DefaultReportStore {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("default report store '%s' not found in configured stores", c.DefaultReportStore)
	}

	return nil
}

// BuildService creates a Service instance from the server configuration.
// The verdict backend comes from the resolver; resolution failure means
// not even the fallback backend could be constructed.
func (c *ServerConfig) BuildService() (gce.Service, error) {
	res, err := backend.Resolve(c.BackendPreference)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve verdict backend: %w", err)
	}

	options := []gce.Option{
		gce.WithBackend(res.Backend, res.Reason),
	}

	repo, err := c.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	options = append(options, gce.WithRepository(repo))

	// The default store must be registered first so the service treats
	// it as its default.
	for _, storeConfig := range c.orderedReportStores() {
		store, err := c.buildReportStore(storeConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build report store %s: %w", storeConfig.Name, err)
		}
		options = append(options, gce.WithReportStore(storeConfig.Name, store))
	}

	if c.EnableAIExplainer {
		explainer, err := explain.NewFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to build explainer: %w", err)
		}
		if explainer != nil {
			options = append(options, gce.WithExplainer(explainer))
		}
	}

	return gce.New(options...)
}

func (c *ServerConfig) orderedReportStores() []ReportStoreConfig {
	ordered := make([]ReportStoreConfig, 0, len(c.ReportStores))
	for _, store := range c.ReportStores {
		if store.Name == c.DefaultReportStore {
			ordered = append(ordered, store)
		}
	}
	for _, store := range c.ReportStores {
		if store.Name != c.DefaultReportStore {
			ordered = append(ordered, store)
		}
	}
	return ordered
}

// buildRepository creates a RunRepository based on the configuration
func (c *ServerConfig) buildRepository() (gce.RunRepository, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		if c.DatabaseURL == "" {
			return nil, errors.New("database_url is required for postgres")
		}
		pool, err := pgxpool.New(context.Background(), c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// PingPostgres verifies connectivity to Postgres.
func PingPostgres(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// buildReportStore creates a ReportStore based on the store configuration
func (c *ServerConfig) buildReportStore(config ReportStoreConfig) (gce.ReportStore, error) {
	switch config.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		fsConfig := fsstorage.Config{
			BaseDir:   getString(config.Config, "base_dir", "./data/reports"),
			URLPrefix: getString(config.Config, "url_prefix", ""),
		}
		return fsstorage.New(fsConfig)

	case "s3":
		s3Config := s3storage.Config{
			Region:                 getString(config.Config, "region", "us-east-1"),
			Bucket:                 getString(config.Config, "bucket", ""),
			AccessKeyID:            getString(config.Config, "access_key_id", ""),
			SecretAccessKey:        getString(config.Config, "secret_access_key", ""),
			Endpoint:               getString(config.Config, "endpoint", ""),
			UsePathStyle:           getBool(config.Config, "use_path_style", false),
			PresignDuration:        getInt(config.Config, "presign_duration", 3600),
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		}
		return s3storage.New(s3Config)

	default:
		return nil, fmt.Errorf("unsupported report store type: %s", config.Type)
	}
}

func getString(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(m map[string]interface{}, key string, fallback bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return fallback
}

func getInt(m map[string]interface{}, key string, fallback int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}
