package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeRelational()
	c.normalizeContractAPI()
	c.normalizeResolver()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeStore() error {
	c.Store.Path = strings.TrimSpace(c.Store.Path)
	if c.Store.Path == "" {
		if value, ok := os.LookupEnv("CUSTID_STORE_PATH"); ok && strings.TrimSpace(value) != "" {
			c.Store.Path = strings.TrimSpace(value)
		} else {
			c.Store.Path = defaultStorePath
		}
	}
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	if c.Store.LockTimeout == 0 {
		c.Store.LockTimeout = defaultLockTimeout
	}
	c.Store.DataSources = trimList(c.Store.DataSources)
	c.Store.UpdateInstructions = trimList(c.Store.UpdateInstructions)
	return nil
}

func (c *Config) normalizeRelational() {
	c.Relational.Driver = strings.ToLower(strings.TrimSpace(c.Relational.Driver))
	switch c.Relational.Driver {
	case "":
		c.Relational.Driver = defaultRelationalDriver
	case "postgres", "postgresql":
		c.Relational.Driver = "pgx"
	case "sqlite3":
		c.Relational.Driver = "sqlite"
	}
	c.Relational.DSN = strings.TrimSpace(c.Relational.DSN)
	if c.Relational.DSN == "" {
		if value, ok := os.LookupEnv("CUSTID_DB_DSN"); ok {
			c.Relational.DSN = strings.TrimSpace(value)
		}
	}
	if c.Relational.Timeout == 0 {
		c.Relational.Timeout = defaultRelationalTimeout
	}
}

func (c *Config) normalizeContractAPI() {
	c.ContractAPI.BaseURL = strings.TrimRight(strings.TrimSpace(c.ContractAPI.BaseURL), "/")
	c.ContractAPI.Username = strings.TrimSpace(c.ContractAPI.Username)
	if c.ContractAPI.Username == "" {
		if value, ok := os.LookupEnv("CUSTID_CONTRACT_USERNAME"); ok {
			c.ContractAPI.Username = strings.TrimSpace(value)
		}
	}
	if c.ContractAPI.Password == "" {
		if value, ok := os.LookupEnv("CUSTID_CONTRACT_PASSWORD"); ok {
			c.ContractAPI.Password = value
		}
	}
	if c.ContractAPI.Timeout == 0 {
		c.ContractAPI.Timeout = defaultContractTimeout
	}
}

func (c *Config) normalizeResolver() {
	seen := make(map[string]struct{}, len(c.Resolver.Backends))
	backends := make([]string, 0, len(c.Resolver.Backends))
	for _, name := range c.Resolver.Backends {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		backends = append(backends, name)
	}
	c.Resolver.Backends = backends
}

func (c *Config) normalizeOutput() error {
	c.Output.Dir = strings.TrimSpace(c.Output.Dir)
	if c.Output.Dir == "" {
		c.Output.Dir = defaultOutputDir
	}
	var err error
	if c.Output.Dir, err = expandPath(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		var err error
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
