package testsupport

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// OfficeSchema creates the two tables the relational backend reads.
const OfficeSchema = `
CREATE TABLE navis_offices (
	id INTEGER PRIMARY KEY,
	tenant_uid INTEGER,
	name TEXT,
	identification_code TEXT,
	created_at TEXT,
	updated_at TEXT
);
CREATE TABLE address_book_masters (
	id INTEGER PRIMARY KEY,
	navis_office_id INTEGER,
	corporate_number TEXT
);
`

// NewOfficeDB creates a sqlite database file with OfficeSchema, runs seed on
// it, and returns the DSN.
func NewOfficeDB(t testing.TB, seed string) string {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "offices.db")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(OfficeSchema + seed); err != nil {
		t.Fatalf("seed office db: %v", err)
	}
	return dsn
}
