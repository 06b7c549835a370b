package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"dserver/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories and a unique
// abstract socket name per test, so parallel packages never collide.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.SocketName = UniqueSocketName()
	cfgVal.Paths.RunDir = filepath.Join(base, "run")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.RetentionDays = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// UniqueSocketName returns a fresh abstract socket name for tests.
func UniqueSocketName() string {
	return "@dserver-test-" + uuid.NewString()
}

// WithSocketName overrides the socket name on the test config.
func WithSocketName(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.SocketName = name
	}
}

// WithBufferSize overrides the receive buffer size on the test config.
func WithBufferSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.BufferSize = size
	}
}

// WithLogging overrides the log format and level on the test config.
func WithLogging(format, level string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Format = format
		b.cfg.Logging.Level = level
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.RunDir)
}
