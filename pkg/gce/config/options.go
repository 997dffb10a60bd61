package config

import (
	"fmt"

	"github.com/guardrail-ml/gce/pkg/gce/backend"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the run repository backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithBackendPreference overrides the GCE_PREFER_CC-derived preference
func WithBackendPreference(pref backend.Preference) Option {
	return func(c *ServerConfig) error {
		c.BackendPreference = pref
		return nil
	}
}

// WithAPISecret enables JWT authentication on the HTTP API
func WithAPISecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.APISecret = secret
		return nil
	}
}

// WithDefaultReportStore sets the default report store name
func WithDefaultReportStore(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			return fmt.Errorf("default report store name cannot be empty")
		}
		c.DefaultReportStore = name
		return nil
	}
}

// WithFilesystemReportStore adds a filesystem report store.
// If name is empty, defaults to "fs".
func WithFilesystemReportStore(name, baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "fs"
		}
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.ReportStores = upsertReportStore(c.ReportStores, ReportStoreConfig{
			Name: name,
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir":   baseDir,
				"url_prefix": urlPrefix,
			},
		})
		return nil
	}
}

// WithS3ReportStore adds an S3-compatible report store.
// If name is empty, defaults to "s3".
func WithS3ReportStore(name, bucket, region, endpoint string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		cfg := map[string]interface{}{
			"bucket": bucket,
		}
		if region != "" {
			cfg["region"] = region
		}
		if endpoint != "" {
			cfg["endpoint"] = endpoint
			cfg["use_path_style"] = true
		}
		c.ReportStores = upsertReportStore(c.ReportStores, ReportStoreConfig{
			Name:   name,
			Type:   "s3",
			Config: cfg,
		})
		return nil
	}
}

// WithoutAIExplainer disables the chat-completions explainer so verdict
// explanations always use the offline summary
func WithoutAIExplainer() Option {
	return func(c *ServerConfig) error {
		c.EnableAIExplainer = false
		return nil
	}
}
