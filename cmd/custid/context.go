package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"custid/internal/config"
	"custid/internal/identity"
	"custid/internal/logging"
	"custid/internal/services"
	"custid/internal/services/contractapi"
	"custid/internal/services/sqlsource"
	"custid/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	relational *sqlsource.Source
	closers    []func() error

	// now is the clock used for stamps and filenames.
	now func() time.Time
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		now:          time.Now,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) loggerFor(component string) *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return logging.NewComponentLogger(c.logger, component)
}

func (c *commandContext) openStore() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Store.Path,
		store.WithLockTimeout(cfg.LockTimeout()),
		store.WithLogger(c.loggerFor("cli")))
}

// relationalSource opens the relational pool once per invocation.
func (c *commandContext) relationalSource() (*sqlsource.Source, error) {
	if c.relational != nil {
		return c.relational, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Relational.Enabled {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "relational",
			fmt.Sprintf("relational source is disabled; set relational.enabled = true and relational.dsn in %s", c.configPathOrDefault()), nil)
	}
	src, err := sqlsource.Open(cfg.Relational.Driver, cfg.Relational.DSN,
		sqlsource.WithTimeout(cfg.RelationalTimeout()))
	if err != nil {
		return nil, err
	}
	c.relational = src
	c.closers = append(c.closers, src.Close)
	return src, nil
}

// backends builds the configured backends in resolver priority order.
// Disabled backends are skipped.
func (c *commandContext) backends() ([]identity.Backend, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	var out []identity.Backend
	for _, name := range cfg.Resolver.Backends {
		switch name {
		case config.BackendRelational:
			if !cfg.Relational.Enabled {
				continue
			}
			src, err := c.relationalSource()
			if err != nil {
				return nil, err
			}
			out = append(out, src)
		case config.BackendContractAPI:
			if !cfg.ContractAPI.Enabled {
				continue
			}
			client, err := contractapi.New(cfg.ContractAPI.BaseURL,
				contractapi.WithBasicAuth(cfg.ContractAPI.Username, cfg.ContractAPI.Password),
				contractapi.WithTimeout(cfg.ContractTimeout()))
			if err != nil {
				return nil, err
			}
			out = append(out, client)
		}
	}
	return out, nil
}

func (c *commandContext) confirmer(s *store.Store) *identity.Confirmer {
	return identity.NewConfirmer(s,
		identity.WithConfirmerLogger(c.loggerFor("cli")),
		identity.WithConfirmerClock(c.now))
}

func (c *commandContext) resolver(s *store.Store) (*identity.Resolver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	backends, err := c.backends()
	if err != nil {
		return nil, err
	}
	return identity.NewResolver(s, backends,
		identity.WithLogger(c.loggerFor("cli")),
		identity.WithParallelLookups(cfg.Resolver.ParallelLookups),
		identity.WithConfirmer(c.confirmer(s))), nil
}

func (c *commandContext) configPathOrDefault() string {
	if c.configPath != "" {
		return c.configPath
	}
	if path, err := config.DefaultConfigPath(); err == nil {
		return path
	}
	return "the config file"
}

func (c *commandContext) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
	c.relational = nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
