package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"autoname/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The input, output, and state directories exist on return; credentials are
// placeholders and the log file lives under the state directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "inbox")
	cfgVal.Paths.OutputDir = filepath.Join(base, "filed")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Logging.File = filepath.Join(base, "state", "autoname.log")
	cfgVal.Sypht.ClientID = "test-client"
	cfgVal.Sypht.ClientSecret = "test-secret"
	cfgVal.ABR.GUID = "00000000-0000-0000-0000-000000000000"
	cfgVal.ABR.RequestsPerSecond = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithServices points both service clients at a fake server.
func WithServices(fake *FakeServices) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sypht.BaseURL = fake.URL()
		b.cfg.Sypht.AuthURL = fake.URL()
		b.cfg.ABR.BaseURL = fake.URL()
	}
}

// WithScanExisting toggles startup scanning of the input directory.
func WithScanExisting(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Intake.ScanExisting = enabled
	}
}

// WithoutHistory disables the outcome journal.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithSeparateOutput places the output directory under a different parent so
// tests can tell it apart from the input tree.
func WithSeparateOutput() ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, "elsewhere", "filed")
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			b.t.Fatalf("mkdir output parent: %v", err)
		}
		b.cfg.Paths.OutputDir = dir
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
