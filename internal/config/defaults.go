package config

const (
	defaultStorePath           = "~/.local/share/custid/customer-database.json"
	defaultLockTimeout         = 10
	defaultRelationalDriver    = "mysql"
	defaultRelationalTimeout   = 5
	defaultContractTimeout     = 5
	defaultOutputDir           = "~/.local/share/custid/output"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultOfficeURLTemplate   = "https://aweb.example.com/offices/{office_id}"
	defaultContractURLTemplate = "https://erp.example.com/search?tenant_uid={tenant_uid}"
	defaultSearchURLTemplate   = "https://aweb.example.com/search?q={query}"

	// BackendRelational and BackendContractAPI name the built-in backends in
	// resolver.backends.
	BackendRelational  = "relational"
	BackendContractAPI = "contract_api"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Store: Store{
			Path:        defaultStorePath,
			LockTimeout: defaultLockTimeout,
			DataSources: []string{
				"manual entry",
				"admin console copy",
				"contract system screenshots",
				"support team notes",
			},
			UpdateInstructions: []string{
				"add frequently contacted customers monthly",
				"copy identity fields from the admin console search result",
				"confirm payment method in the contract system before adding",
			},
		},
		Relational: Relational{
			Driver:  defaultRelationalDriver,
			Timeout: defaultRelationalTimeout,
		},
		ContractAPI: ContractAPI{
			Timeout: defaultContractTimeout,
		},
		Resolver: Resolver{
			Backends: []string{BackendRelational, BackendContractAPI},
		},
		Links: Links{
			OfficeURL:   defaultOfficeURLTemplate,
			ContractURL: defaultContractURLTemplate,
			SearchURL:   defaultSearchURLTemplate,
		},
		Output: Output{
			Dir:         defaultOutputDir,
			SaveReports: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
