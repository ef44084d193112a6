// Package testsupport provides shared constructors for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"seedvault/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a valid config seeded with unique temp directories per
// test and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Source.URL = "http://127.0.0.1:8080"
	cfg.Transfer.Remote = "test:archive"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMaxConcurrent overrides the driver fan-out width on the test config.
func WithMaxConcurrent(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.MaxConcurrent = n
	}
}

// WithRetryLimits overrides both retry ceilings on the test config.
func WithRetryLimits(upload, verification int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.UploadRetryLimit = upload
		cfg.Workflow.VerificationRetryLimit = verification
	}
}
