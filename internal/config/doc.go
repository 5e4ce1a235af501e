// Package config loads, normalizes, and validates custid configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CUSTID_DB_DSN and CUSTID_CONTRACT_PASSWORD. The Config type centralizes the
// store location, backend connection settings, and resolver behaviour so the
// CLI can wire every component from one pass.
//
// Missing connection settings surface as services.ErrConfiguration with a
// remediation hint so operators know which key to set.
package config
