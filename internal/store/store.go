package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"custid/internal/customer"
	"custid/internal/logging"
	"custid/internal/services"
)

const (
	defaultLockTimeout = 10 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

// Store provides access to the customer store file.
type Store struct {
	path        string
	lock        *flock.Flock
	lockTimeout time.Duration
	logger      *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLockTimeout bounds how long writers wait for the store lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// Open returns a handle for the store at path. Nothing is read or created
// until the first operation.
func Open(path string, opts ...Option) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "store path is empty", nil)
	}
	s := &Store{
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: defaultLockTimeout,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "store")
	return s, nil
}

// Path returns the store file location.
func (s *Store) Path() string { return s.path }

// Load reads the store file. A missing or empty file yields an empty snapshot.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Snapshot{Customers: []customer.Record{}}, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return &Snapshot{Customers: []customer.Record{}}, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, services.Wrap(services.ErrStoreCorrupt, "store", "load",
			fmt.Sprintf("parse %s (fix or move the file aside)", s.path), err)
	}
	if snap.Customers == nil {
		snap.Customers = []customer.Record{}
	}

	s.logger.Debug("loaded customer store",
		logging.Int("record_count", len(snap.Customers)),
		logging.String("path", s.path))
	return &snap, nil
}

// FindExact loads the store and returns the first exact match for q.
func (s *Store) FindExact(ctx context.Context, q customer.Query) (*customer.Record, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	rec, _ := snap.FindExact(q)
	return rec, nil
}

// FindPartial loads the store and returns the first substring match for q.
func (s *Store) FindPartial(ctx context.Context, q customer.Query) (*customer.Record, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	rec, _ := snap.FindPartial(q)
	return rec, nil
}

// List returns all records in store order.
func (s *Store) List(ctx context.Context) ([]customer.Record, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Customers, nil
}

// Init writes an empty store carrying operator metadata. It reports false and
// leaves the file untouched when a store already exists.
func (s *Store) Init(ctx context.Context, dataSources, instructions []string) (bool, error) {
	var created bool
	err := s.withLock(ctx, func() error {
		if _, err := os.Stat(s.path); err == nil {
			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat store file: %w", err)
		}
		snap := &Snapshot{
			Customers:          []customer.Record{},
			DataSources:        append([]string(nil), dataSources...),
			UpdateInstructions: append([]string(nil), instructions...),
		}
		if err := s.write(snap); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info("initialized customer store", logging.String("path", s.path))
	}
	return created, nil
}

// Upsert merges candidate into the store under the identity rule: any shared
// company name, tenant UID or office ID denotes the same entity. It returns the
// stored record and whether it was newly appended. More than one matching
// record is reported as services.ErrAmbiguousIdentity and nothing is written.
func (s *Store) Upsert(ctx context.Context, candidate customer.Partial, now time.Time) (customer.Record, bool, error) {
	candidate.Trim()
	if err := candidate.ValidateIdentity("store", "upsert"); err != nil {
		return customer.Record{}, false, err
	}

	var (
		result  customer.Record
		created bool
	)
	err := s.withLock(ctx, func() error {
		snap, err := s.Load(ctx)
		if err != nil {
			return err
		}

		matches := snap.identityMatches(candidate)
		switch len(matches) {
		case 0:
			result = customer.Confirmed(nil, candidate, now)
			snap.Customers = append(snap.Customers, result)
			created = true
		case 1:
			idx := matches[0]
			result = customer.Confirmed(&snap.Customers[idx], candidate, now)
			snap.Customers[idx] = result
		default:
			labels := make([]string, 0, len(matches))
			for _, idx := range matches {
				labels = append(labels, snap.Customers[idx].String())
			}
			return services.Wrap(services.ErrAmbiguousIdentity, "store", "upsert",
				"candidate matches "+strings.Join(labels, "; "), nil)
		}

		stamp := now.UTC()
		snap.LastUpdated = &stamp
		return s.write(snap)
	})
	if err != nil {
		return customer.Record{}, false, err
	}

	s.logger.Info("customer record saved",
		logging.String("company_name", result.CompanyName),
		logging.String("tenant_uid", result.TenantUID),
		logging.String("office_id", result.OfficeID),
		logging.Bool("created", created))
	return result, created, nil
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTimeout, "store", "lock",
			fmt.Sprintf("another writer holds %s", s.lock.Path()), err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release store lock",
				logging.String(logging.FieldEventType, "store_unlock_failed"),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the stale lock file if writes keep timing out"),
				logging.String(logging.FieldImpact, "later writers may wait for the lock timeout"))
		}
	}()
	return fn()
}

// write replaces the store file atomically.
func (s *Store) write(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
