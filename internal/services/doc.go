// Package services defines shared utilities consumed by the resolver, the
// local store, and the remote backend integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and backend names
//     for logging.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     degraded backend (recoverable) from a corrupt store or invalid input
//     (fatal to the current operation).
//
// Backend packages live underneath (sqlsource, contractapi) and report their
// failures through these markers instead of aborting a resolution.
package services
