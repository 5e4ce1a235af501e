// Package sqlsource resolves customer identity from the relational office
// tables (navis_offices joined to address_book_masters).
//
// Statements are read-only and parameterized. The MySQL, PostgreSQL (pgx) and
// SQLite (modernc) drivers are registered here so the configured driver name
// can be passed straight to database/sql. Lookup never fails resolution: any
// driver, connectivity or timeout error yields a nil partial and an error
// wrapping services.ErrUnavailable.
package sqlsource
