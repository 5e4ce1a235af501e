package sqlsource_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"custid/internal/customer"
	"custid/internal/services"
	"custid/internal/services/sqlsource"
	"custid/internal/testsupport"
)

const seedRows = `
INSERT INTO navis_offices VALUES (12345, 99, 'Acme Corp', 'ACM-1', '2024-01-01', '2024-01-01');
INSERT INTO navis_offices VALUES (12346, 100, 'Acme Corp Osaka', 'ACM-2', '2024-06-01', '2024-06-01');
INSERT INTO navis_offices VALUES (500, 7, '100%_Pure', 'PURE', '2023-01-01', '2023-01-01');
INSERT INTO address_book_masters VALUES (1, 12345, '1234567890123');
`

func newSQLiteSource(t *testing.T) *sqlsource.Source {
	t.Helper()
	src, err := sqlsource.Open(sqlsource.DriverSQLite, testsupport.NewOfficeDB(t, seedRows))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestLookupNumericMatchesOfficeAndTenant(t *testing.T) {
	src := newSQLiteSource(t)
	ctx := context.Background()

	partial, err := src.Lookup(ctx, customer.Classify("12345"))
	if err != nil {
		t.Fatalf("Lookup office: %v", err)
	}
	if partial == nil || partial.CompanyName != "Acme Corp" || partial.TenantUID != "99" || partial.OfficeID != "12345" {
		t.Fatalf("unexpected partial %+v", partial)
	}
	if partial.CorporateNumber != "1234567890123" || partial.IdentificationCode != "ACM-1" {
		t.Fatalf("joined fields missing: %+v", partial)
	}

	partial, err = src.Lookup(ctx, customer.Classify("100"))
	if err != nil {
		t.Fatalf("Lookup tenant: %v", err)
	}
	if partial == nil || partial.OfficeID != "12346" {
		t.Fatalf("expected tenant match, got %+v", partial)
	}
}

func TestLookupCorporateNumber(t *testing.T) {
	src := newSQLiteSource(t)
	partial, err := src.Lookup(context.Background(), customer.Classify("1234567890123"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if partial == nil || partial.OfficeID != "12345" {
		t.Fatalf("expected corporate number match, got %+v", partial)
	}
}

func TestLookupTextPrefersNewestRow(t *testing.T) {
	src := newSQLiteSource(t)
	partial, err := src.Lookup(context.Background(), customer.Classify("Acme"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if partial == nil || partial.CompanyName != "Acme Corp Osaka" {
		t.Fatalf("expected newest office, got %+v", partial)
	}
}

func TestLookupEscapesWildcards(t *testing.T) {
	src := newSQLiteSource(t)
	ctx := context.Background()

	partial, err := src.Lookup(ctx, customer.Classify("100%_"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if partial == nil || partial.OfficeID != "500" {
		t.Fatalf("expected literal wildcard match, got %+v", partial)
	}

	partial, err = src.Lookup(ctx, customer.Classify("A%p"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if partial != nil {
		t.Fatalf("'%%' must not act as a wildcard, got %+v", partial)
	}
}

func TestLookupMissReturnsNil(t *testing.T) {
	src := newSQLiteSource(t)
	partial, err := src.Lookup(context.Background(), customer.Classify("Nobody Ltd"))
	if err != nil || partial != nil {
		t.Fatalf("expected clean miss, got %+v %v", partial, err)
	}
}

func TestLookupDriverErrorIsUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM navis_offices o")).
		WillReturnError(errors.New("dial tcp: connection refused"))

	src := sqlsource.New(db, sqlsource.DriverMySQL)
	partial, err := src.Lookup(context.Background(), customer.Classify("Acme"))
	if partial != nil {
		t.Fatalf("expected nil partial, got %+v", partial)
	}
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if errors.Is(err, services.ErrTimeout) {
		t.Fatalf("connection refusal is not a timeout: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLookupTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "tenant_uid", "name", "identification_code", "corporate_number"}).
		AddRow(1, 2, "Slow Co", "S", nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM navis_offices o")).
		WillDelayFor(time.Second).
		WillReturnRows(rows)

	src := sqlsource.New(db, sqlsource.DriverMySQL, sqlsource.WithTimeout(30*time.Millisecond))
	start := time.Now()
	partial, err := src.Lookup(context.Background(), customer.Classify("Slow"))
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("lookup did not honor timeout")
	}
	if partial != nil || !errors.Is(err, services.ErrUnavailable) || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %+v %v", partial, err)
	}
}

func TestLookupBindsNumericArgs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "tenant_uid", "name", "identification_code", "corporate_number"}).
		AddRow("42", "7", "Bound Co", nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("o.id = $1 OR o.tenant_uid = $2 OR abm.corporate_number = $3")).
		WithArgs(int64(42), int64(42), "42").
		WillReturnRows(rows)

	src := sqlsource.New(db, sqlsource.DriverPostgres)
	partial, err := src.Lookup(context.Background(), customer.Classify("42"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if partial.CompanyName != "Bound Co" || partial.CorporateNumber != "" {
		t.Fatalf("unexpected partial %+v", partial)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestOpenValidatesDriver(t *testing.T) {
	if _, err := sqlsource.Open("oracle", "x"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if _, err := sqlsource.Open(sqlsource.DriverMySQL, " "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for empty dsn, got %v", err)
	}
}

func TestRebind(t *testing.T) {
	got := sqlsource.Rebind(sqlsource.DriverPostgres, "a = ? AND b LIKE '?%' AND c = ?")
	want := "a = $1 AND b LIKE '?%' AND c = $2"
	if got != want {
		t.Fatalf("Rebind = %q, want %q", got, want)
	}
	if sqlsource.Rebind(sqlsource.DriverMySQL, "a = ?") != "a = ?" {
		t.Fatal("mysql placeholders must stay untouched")
	}
}

func TestEscapeLike(t *testing.T) {
	if got := sqlsource.EscapeLike("50%_off!"); got != "50!%!_off!!" {
		t.Fatalf("EscapeLike = %q", got)
	}
}

