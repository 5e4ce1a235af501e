package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"custid/internal/config"
	"custid/internal/services/sqlsource"
	"custid/internal/testsupport"
)

const officeRows = `
INSERT INTO navis_offices VALUES (12345, 99, 'Acme Corp', 'ACM-1', '2024-01-01', '2024-01-01');
INSERT INTO navis_offices VALUES (777, 55, 'Globex', NULL, '2024-02-01', '2024-02-01');
INSERT INTO address_book_masters VALUES (1, 12345, '1234567890123');
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// setupCLITestEnv writes a config pointing at a temp store. Options enable
// remote backends.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("CUSTID_DB_DSN", "")

	configPath := filepath.Join(homeDir, ".config", "custid", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

// withRemoteBackends serves the sqlite office fixture and a contract API
// that knows tenant 99.
func withRemoteBackends(t *testing.T) []testsupport.ConfigOption {
	t.Helper()

	dsn := testsupport.NewOfficeDB(t, officeRows)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/contracts/99" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"plan_name":"Standard","payment_method":"invoice","status":"active"}`))
	}))
	t.Cleanup(srv.Close)

	return []testsupport.ConfigOption{
		testsupport.WithRelational(sqlsource.DriverSQLite, dsn),
		testsupport.WithContractAPI(srv.URL),
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
