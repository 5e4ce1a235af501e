package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"custid/internal/customer"
	"custid/internal/services"
)

const (
	// Name identifies this backend in config and logs.
	Name = "relational"

	defaultTimeout = 5 * time.Second
)

// Supported database/sql driver names.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

const lookupBase = `SELECT o.id, o.tenant_uid, o.name, o.identification_code, abm.corporate_number
FROM navis_offices o
LEFT JOIN address_book_masters abm ON o.id = abm.navis_office_id
WHERE %s
ORDER BY o.created_at DESC
LIMIT 1`

// Source is a relational identity backend.
type Source struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
	owned   bool
}

// Option configures a Source.
type Option func(*Source)

// WithTimeout bounds each lookup query.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Open creates a Source backed by a new connection pool. The connection is
// established lazily on the first query.
func Open(driver, dsn string, opts ...Option) (*Source, error) {
	driver = strings.TrimSpace(driver)
	switch driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return nil, services.Wrap(services.ErrConfiguration, Name, "open",
			fmt.Sprintf("unsupported driver %q", driver), nil)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, services.Wrap(services.ErrConfiguration, Name, "open", "dsn is empty", nil)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, Name, "open", "invalid dsn", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxIdleTime(time.Minute)
	s := New(db, driver, opts...)
	s.owned = true
	return s, nil
}

// New wraps an existing pool. The caller keeps ownership of db.
func New(db *sql.DB, driver string, opts ...Option) *Source {
	s := &Source{db: db, driver: strings.TrimSpace(driver), timeout: defaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the pool for read-only exports.
func (s *Source) DB() *sql.DB { return s.db }

// Driver returns the database/sql driver name.
func (s *Source) Driver() string { return s.driver }

// Close releases the pool when Open created it.
func (s *Source) Close() error {
	if s == nil || s.db == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}

// Name returns the backend name.
func (s *Source) Name() string { return Name }

// Requires reports that the source resolves identity from the raw query.
func (s *Source) Requires() customer.Field { return "" }

// Lookup returns the newest office row matching q, or nil when nothing matches.
func (s *Source) Lookup(ctx context.Context, q customer.Query) (*customer.Partial, error) {
	if strings.TrimSpace(q.Value) == "" {
		return nil, nil
	}
	stmt, args := s.buildLookup(q)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		officeID, tenantUID, name sql.NullString
		idCode, corporateNumber   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&officeID, &tenantUID, &name, &idCode, &corporateNumber)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrUnavailable, Name, "lookup",
				fmt.Sprintf("query exceeded %v", s.timeout), fmt.Errorf("%w: %w", services.ErrTimeout, err))
		}
		return nil, services.Wrap(services.ErrUnavailable, Name, "lookup", "", err)
	}

	return &customer.Partial{
		CompanyName:        strings.TrimSpace(name.String),
		TenantUID:          strings.TrimSpace(tenantUID.String),
		OfficeID:           strings.TrimSpace(officeID.String),
		CorporateNumber:    strings.TrimSpace(corporateNumber.String),
		IdentificationCode: strings.TrimSpace(idCode.String),
	}, nil
}

// buildLookup picks the WHERE clause for q. Numeric queries match office id,
// tenant UID and corporate number; text queries match a name substring, the
// identification code and corporate number.
func (s *Source) buildLookup(q customer.Query) (string, []any) {
	var (
		where string
		args  []any
	)
	if q.Kind == customer.KindNumeric {
		if n, err := strconv.ParseInt(q.Value, 10, 64); err == nil {
			where = "o.id = ? OR o.tenant_uid = ? OR abm.corporate_number = ?"
			args = []any{n, n, q.Value}
		} else {
			where = "abm.corporate_number = ?"
			args = []any{q.Value}
		}
	} else {
		where = "o.name LIKE ? ESCAPE '!' OR o.identification_code = ? OR abm.corporate_number = ?"
		args = []any{"%" + EscapeLike(q.Value) + "%", q.Value, q.Value}
	}
	return Rebind(s.driver, fmt.Sprintf(lookupBase, where)), args
}

// EscapeLike escapes LIKE wildcards using '!' as the escape character.
func EscapeLike(value string) string {
	return likeEscaper.Replace(value)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Rebind rewrites '?' placeholders into the driver's native form. Quoted
// literals are left alone.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var (
		b       strings.Builder
		n       int
		inQuote bool
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
