package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"custid/internal/services"
)

func TestQueryPresetWritesCSV(t *testing.T) {
	env := setupCLITestEnv(t, withRemoteBackends(t)...)

	out, _, err := runCLI(t, []string{"query", "--preset", "customers", "--output", "offices.csv"}, env.configPath)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	requireContains(t, out, "Acme Corp")
	requireContains(t, out, "2 rows")

	data, err := os.ReadFile(filepath.Join(env.cfg.Output.Dir, "offices.csv"))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	requireContains(t, string(data), "office_id,tenant_uid,company_name")
	requireContains(t, string(data), "Globex")
}

func TestQueryCustomSQLWithBOM(t *testing.T) {
	env := setupCLITestEnv(t, withRemoteBackends(t)...)
	target := filepath.Join(t.TempDir(), "names.csv")

	_, _, err := runCLI(t, []string{"query", "--sql", "SELECT name FROM navis_offices ORDER BY id", "--output", target, "--encoding", "utf-8-bom"}, env.configPath)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("expected BOM, got % x", data[:3])
	}
	requireContains(t, string(data), "Globex")
}

func TestQuerySearchPreset(t *testing.T) {
	env := setupCLITestEnv(t, withRemoteBackends(t)...)

	out, _, err := runCLI(t, []string{"query", "--preset", "search", "--term", "Glob"}, env.configPath)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	requireContains(t, out, "Globex")
	requireNotContains(t, out, "Acme Corp")

	_, _, err = runCLI(t, []string{"query", "--preset", "search"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation without term, got %v", err)
	}
}

func TestQueryRejectsWrites(t *testing.T) {
	env := setupCLITestEnv(t, withRemoteBackends(t)...)

	for _, stmt := range []string{
		"DELETE FROM navis_offices",
		"SELECT 1; DROP TABLE navis_offices",
	} {
		_, _, err := runCLI(t, []string{"query", "--sql", stmt}, env.configPath)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%q: expected ErrValidation, got %v", stmt, err)
		}
	}
}

func TestQueryRequiresRelationalSource(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"query", "--preset", "stats"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	requireContains(t, err.Error(), "relational.enabled")
}

func TestQueryListPresets(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"query", "--list-presets"}, env.configPath)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for _, name := range []string{"customers", "recent", "stats", "search"} {
		requireContains(t, out, name)
	}
}
