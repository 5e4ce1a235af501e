package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"custid/internal/customer"
	"custid/internal/logging"
	"custid/internal/services"
)

// Upserter persists a confirmed candidate.
type Upserter interface {
	Upsert(ctx context.Context, candidate customer.Partial, now time.Time) (customer.Record, bool, error)
}

// Confirmer merges operator-confirmed candidates into the local store.
type Confirmer struct {
	store  Upserter
	logger *slog.Logger
	now    func() time.Time
}

// ConfirmerOption configures a Confirmer.
type ConfirmerOption func(*Confirmer)

// WithConfirmerLogger sets the confirmer logger.
func WithConfirmerLogger(logger *slog.Logger) ConfirmerOption {
	return func(c *Confirmer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConfirmerClock overrides the time source used for stamps.
func WithConfirmerClock(now func() time.Time) ConfirmerOption {
	return func(c *Confirmer) {
		if now != nil {
			c.now = now
		}
	}
}

// NewConfirmer constructs a Confirmer writing through store.
func NewConfirmer(store Upserter, opts ...ConfirmerOption) *Confirmer {
	c := &Confirmer{store: store, logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "confirm")
	return c
}

// Confirm validates candidate and merges it into the store. Company name,
// tenant UID and office ID are required.
func (c *Confirmer) Confirm(ctx context.Context, candidate customer.Partial) (*customer.Record, error) {
	rec, _, err := c.Apply(ctx, candidate)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Apply is Confirm that also reports whether a new record was appended.
func (c *Confirmer) Apply(ctx context.Context, candidate customer.Partial) (customer.Record, bool, error) {
	candidate.Trim()
	if err := candidate.ValidateIdentity("confirm", "validate"); err != nil {
		return customer.Record{}, false, err
	}

	rec, created, err := c.store.Upsert(ctx, candidate, c.now())
	if err != nil {
		logger := logging.WithContext(ctx, c.logger)
		logger.Error("confirm failed",
			logging.String(logging.FieldEventType, "confirm_failed"),
			logging.String("company_name", candidate.CompanyName),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, confirmHint(err)))
		return customer.Record{}, false, err
	}

	action := "updated"
	if created {
		action = "added"
	}
	logging.WithContext(ctx, c.logger).Info("customer confirmed",
		logging.String("action", action),
		logging.String("company_name", rec.CompanyName),
		logging.String("tenant_uid", rec.TenantUID),
		logging.String("office_id", rec.OfficeID))
	return rec, created, nil
}

func confirmHint(err error) string {
	switch {
	case errors.Is(err, services.ErrAmbiguousIdentity):
		return "the candidate's keys belong to different stored records; fix the store or the candidate"
	case errors.Is(err, services.ErrStoreCorrupt):
		return "repair or move the store file aside"
	default:
		return "check store path permissions"
	}
}
