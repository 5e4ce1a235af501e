package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"custid/internal/services"
)

// Validate ensures the configuration is usable. Errors caused by absent
// connection settings wrap services.ErrConfiguration and carry remediation text.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateRelational(); err != nil {
		return err
	}
	if err := c.validateContractAPI(); err != nil {
		return err
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStore() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path must be set")
	}
	if c.Store.LockTimeout <= 0 {
		return errors.New("store.lock_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateRelational() error {
	if c.Relational.Timeout <= 0 {
		return errors.New("relational.timeout must be positive (seconds)")
	}
	if !c.Relational.Enabled {
		return nil
	}
	switch c.Relational.Driver {
	case "mysql", "pgx", "sqlite":
	default:
		return fmt.Errorf("relational.driver: unsupported value %q (use mysql, pgx, or sqlite)", c.Relational.Driver)
	}
	if c.Relational.DSN == "" {
		return missing("relational.dsn must be set when relational.enabled is true. Set CUSTID_DB_DSN or edit the config file")
	}
	return nil
}

func (c *Config) validateContractAPI() error {
	if c.ContractAPI.Timeout <= 0 {
		return errors.New("contract_api.timeout must be positive (seconds)")
	}
	if !c.ContractAPI.Enabled {
		return nil
	}
	if c.ContractAPI.BaseURL == "" {
		return missing("contract_api.base_url must be set when contract_api.enabled is true")
	}
	parsed, err := url.Parse(c.ContractAPI.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("contract_api.base_url: invalid url %q", c.ContractAPI.BaseURL)
	}
	return nil
}

func (c *Config) validateResolver() error {
	for _, name := range c.Resolver.Backends {
		switch name {
		case BackendRelational, BackendContractAPI:
		default:
			return fmt.Errorf("resolver.backends: unknown backend %q", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func missing(message string) error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/custid/config.toml"
	}
	return fmt.Errorf("%w: %s (config: %s, create with 'custid config init')", services.ErrConfiguration, message, defaultPath)
}
