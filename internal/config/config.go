package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Store contains configuration for the local customer store file.
type Store struct {
	Path               string   `toml:"path"`
	LockTimeout        int      `toml:"lock_timeout"`
	DataSources        []string `toml:"data_sources"`
	UpdateInstructions []string `toml:"update_instructions"`
}

// Relational contains connection settings for the read-only relational source.
type Relational struct {
	Enabled bool   `toml:"enabled"`
	Driver  string `toml:"driver"`
	DSN     string `toml:"dsn"`
	Timeout int    `toml:"timeout"`
}

// ContractAPI contains connection settings for the contract HTTP API.
type ContractAPI struct {
	Enabled  bool   `toml:"enabled"`
	BaseURL  string `toml:"base_url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Timeout  int    `toml:"timeout"`
}

// Resolver contains configuration for the lookup cascade.
type Resolver struct {
	// Backends lists backend names in priority order. Unknown or disabled
	// backends are skipped.
	Backends        []string `toml:"backends"`
	ParallelLookups bool     `toml:"parallel_lookups"`
	PersistRemote   bool     `toml:"persist_remote"`
}

// Links contains URL templates rendered into lookup reports. {office_id},
// {tenant_uid} and {query} are substituted.
type Links struct {
	OfficeURL   string `toml:"office_url"`
	ContractURL string `toml:"contract_url"`
	SearchURL   string `toml:"search_url"`
}

// Output contains configuration for saved reports and exports.
type Output struct {
	Dir         string `toml:"dir"`
	SaveReports bool   `toml:"save_reports"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for custid.
//
// Configuration sections by subsystem:
//   - Store: local customer store file and operator metadata
//   - Relational: read-only SQL identity source
//   - ContractAPI: HTTP contract/payment source
//   - Resolver: backend priority and persistence behaviour
//   - Links: report URL templates
//   - Output: report and export directory
//   - Logging: log format, level, and optional file
type Config struct {
	Store       Store       `toml:"store"`
	Relational  Relational  `toml:"relational"`
	ContractAPI ContractAPI `toml:"contract_api"`
	Resolver    Resolver    `toml:"resolver"`
	Links       Links       `toml:"links"`
	Output      Output      `toml:"output"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/custid/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("custid.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the store and reports live in.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Store.Path)}
	if strings.TrimSpace(c.Output.Dir) != "" {
		dirs = append(dirs, c.Output.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RelationalTimeout returns the bounded wait for one relational lookup.
func (c *Config) RelationalTimeout() time.Duration {
	return time.Duration(c.Relational.Timeout) * time.Second
}

// ContractTimeout returns the bounded wait for one contract API call.
func (c *Config) ContractTimeout() time.Duration {
	return time.Duration(c.ContractAPI.Timeout) * time.Second
}

// LockTimeout returns how long an upsert waits for the store lock.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Store.LockTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// RenderLink substitutes record values into a link template. Empty templates
// render as empty strings.
func RenderLink(template, officeID, tenantUID, query string) string {
	if strings.TrimSpace(template) == "" {
		return ""
	}
	replacer := strings.NewReplacer(
		"{office_id}", officeID,
		"{tenant_uid}", tenantUID,
		"{query}", query,
	)
	return replacer.Replace(template)
}
