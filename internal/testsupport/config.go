package testsupport

import (
	"path/filepath"
	"testing"

	"boreline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = filepath.Join(base, "data", "boreline.sock")
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// WithSupervisorForceRelease lets supervisors force-release claims.
func WithSupervisorForceRelease() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.SupervisorForceRelease = true
	}
}

// WithSocketPath overrides the IPC socket location. Unix socket paths have a
// short length limit, so tests that listen should pass a short directory.
func WithSocketPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.SocketPath = path
	}
}

// WithPlantFile points the config at a plant definition file.
func WithPlantFile(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.PlantFile = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
