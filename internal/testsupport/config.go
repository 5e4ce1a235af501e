package testsupport

import (
	"path/filepath"
	"testing"

	"custid/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose store and output directory live under a
// unique temp directory. Remote backends start disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Store.Path = filepath.Join(base, "data", "customer-database.json")
	cfgVal.Store.LockTimeout = 1
	cfgVal.Output.Dir = filepath.Join(base, "output")
	cfgVal.Output.SaveReports = false
	cfgVal.Logging.Level = "error"

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

// WithRelational enables the relational backend with the given driver and DSN.
func WithRelational(driver, dsn string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Relational.Enabled = true
		b.cfg.Relational.Driver = driver
		b.cfg.Relational.DSN = dsn
	}
}

// WithContractAPI enables the contract API backend at baseURL.
func WithContractAPI(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ContractAPI.Enabled = true
		b.cfg.ContractAPI.BaseURL = baseURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Store.Path))
}
