package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"custid/internal/customer"
	"custid/internal/logging"
	"custid/internal/services"
	"custid/internal/store"
)

// Tier records which cascade stage produced a result.
type Tier string

const (
	TierLocalExact   Tier = "local-exact"
	TierLocalPartial Tier = "local-partial"
	TierRemote       Tier = "remote"
	TierUnresolved   Tier = "unresolved"
)

// Local reads the local store.
type Local interface {
	Load(ctx context.Context) (*store.Snapshot, error)
}

// Result is the outcome of a resolution. Record is nil when Tier is
// TierUnresolved.
type Result struct {
	Record    *customer.Record `json:"record"`
	Tier      Tier             `json:"tier"`
	Sources   []string         `json:"sources,omitempty"`
	Query     customer.Query   `json:"query"`
	RequestID string           `json:"request_id"`
	Persisted bool             `json:"persisted,omitempty"`

	// PersistErr is set when ResolveOptions.Persist was requested and the
	// confirm step failed. The lookup itself still succeeded.
	PersistErr error `json:"-"`
}

// Resolved reports whether a record was found.
func (r *Result) Resolved() bool { return r != nil && r.Record != nil }

// ResolveOptions tunes a single resolution.
type ResolveOptions struct {
	// Persist confirms a complete remote record into the local store.
	Persist bool
	// EnrichLocal fills placeholder contract fields of a local hit from
	// dependent backends.
	EnrichLocal bool
	// LocalOnly skips every remote backend.
	LocalOnly bool
}

// Resolver runs the lookup cascade.
type Resolver struct {
	local     Local
	identity  []Backend
	dependent []Backend
	confirmer *Confirmer
	parallel  bool
	logger    *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithParallelLookups queries identity backends concurrently. The base record
// is still chosen by priority, not completion order.
func WithParallelLookups(enabled bool) ResolverOption {
	return func(r *Resolver) { r.parallel = enabled }
}

// WithConfirmer enables ResolveOptions.Persist.
func WithConfirmer(c *Confirmer) ResolverOption {
	return func(r *Resolver) { r.confirmer = c }
}

// NewResolver builds a resolver over local and backends, which are kept in
// the given priority order.
func NewResolver(local Local, backends []Backend, opts ...ResolverOption) *Resolver {
	identity, dependent := splitBackends(backends)
	r := &Resolver{
		local:     local,
		identity:  identity,
		dependent: dependent,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "resolver")
	return r
}

// Resolve classifies raw and walks the cascade: local exact, local partial,
// remote, unresolved. An unresolved query is not an error; only local store
// failures are returned.
func (r *Resolver) Resolve(ctx context.Context, raw string, opts ResolveOptions) (*Result, error) {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, r.logger)

	q := customer.Classify(raw)
	result := &Result{Query: q, RequestID: requestID, Tier: TierUnresolved}

	snap, err := r.local.Load(ctx)
	if err != nil {
		logging.ErrorWithContext(logger, "local store unreadable", "store_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or restore the store file before retrying"))
		return nil, err
	}

	if rec, ok := snap.FindExact(q); ok {
		result.Record, result.Tier = rec, TierLocalExact
	} else if rec, ok := snap.FindPartial(q); ok {
		result.Record, result.Tier = rec, TierLocalPartial
	}

	if result.Record != nil {
		if opts.EnrichLocal && !opts.LocalOnly {
			r.enrichLocal(ctx, result, opts.Persist)
		}
		logger.Info("lookup resolved locally",
			logging.Tier(string(result.Tier)),
			logging.String(logging.FieldQueryKind, string(q.Kind)),
			logging.String("company_name", result.Record.CompanyName))
		return result, nil
	}

	if opts.LocalOnly || q.Value == "" {
		logger.Info("lookup unresolved", logging.Tier(string(TierUnresolved)), logging.Bool("local_only", opts.LocalOnly))
		return result, nil
	}

	base, baseName := r.findIdentity(ctx, q)
	if base == nil {
		logger.Info("lookup unresolved",
			logging.Tier(string(TierUnresolved)),
			logging.Int("backends_tried", len(r.identity)))
		return result, nil
	}

	merged := *base
	result.Sources = append(result.Sources, baseName)
	result.Sources = append(result.Sources, r.applyDependents(ctx, &merged)...)
	result.Record = merged.Record()
	result.Tier = TierRemote

	if opts.Persist {
		r.persist(ctx, result, merged)
	}

	logger.Info("lookup resolved remotely",
		logging.Tier(string(result.Tier)),
		logging.String(logging.FieldQueryKind, string(q.Kind)),
		logging.Any("sources", result.Sources),
		logging.String("company_name", result.Record.CompanyName))
	return result, nil
}

type identityAnswer struct {
	partial *customer.Partial
}

// findIdentity returns the first identity-bearing partial in priority order.
func (r *Resolver) findIdentity(ctx context.Context, q customer.Query) (*customer.Partial, string) {
	if len(r.identity) == 0 {
		return nil, ""
	}

	if !r.parallel || len(r.identity) == 1 {
		for _, b := range r.identity {
			if p := r.call(ctx, b, q); p.HasIdentity() {
				return p, b.Name()
			}
		}
		return nil, ""
	}

	results := make([]identityAnswer, len(r.identity))
	var wg sync.WaitGroup
	for i, b := range r.identity {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = identityAnswer{partial: r.call(ctx, b, q)}
		}()
	}
	wg.Wait()

	for i, res := range results {
		if res.partial.HasIdentity() {
			return res.partial, r.identity[i].Name()
		}
	}
	return nil, ""
}

// applyDependents queries every dependent backend whose key field is known and
// merges its answer into merged. It returns the names of contributing backends.
func (r *Resolver) applyDependents(ctx context.Context, merged *customer.Partial) []string {
	var sources []string
	for _, b := range r.dependent {
		key := merged.Get(b.Requires())
		if customer.IsPlaceholder(key) {
			logging.WithContext(ctx, r.logger).Debug("skipping dependent backend",
				logging.Backend(b.Name()),
				logging.String("requires", string(b.Requires())))
			continue
		}
		p := r.call(ctx, b, customer.Classify(key))
		if merged.MergeFrom(p) {
			sources = append(sources, b.Name())
		}
	}
	return sources
}

func (r *Resolver) enrichLocal(ctx context.Context, result *Result, persist bool) {
	rec := result.Record
	if !customer.IsPlaceholder(rec.PlanName) && !customer.IsPlaceholder(rec.PaymentMethod) &&
		!customer.IsPlaceholder(rec.ContractStatus) {
		return
	}
	merged := customer.PartialOf(rec)
	sources := r.applyDependents(ctx, merged)
	if len(sources) == 0 {
		return
	}
	enriched := rec.Clone()
	enriched.PlanName = merged.PlanName
	enriched.PaymentMethod = merged.PaymentMethod
	enriched.ContractStatus = merged.ContractStatus
	result.Record = enriched
	result.Sources = append(result.Sources, sources...)

	if persist {
		r.persist(ctx, result, *merged)
	}
}

func (r *Resolver) persist(ctx context.Context, result *Result, merged customer.Partial) {
	logger := logging.WithContext(ctx, r.logger)
	if r.confirmer == nil {
		logger.Debug("persist requested without a confirmer")
		return
	}
	if missing := merged.MissingIdentity(); len(missing) > 0 {
		logging.WarnWithContext(logger, "remote record not persisted", "persist_skipped",
			logging.Any("missing", missing),
			logging.String(logging.FieldErrorHint, "confirm manually with custid add"),
			logging.String(logging.FieldImpact, "next lookup will query remote backends again"))
		return
	}
	rec, err := r.confirmer.Confirm(ctx, merged)
	if err != nil {
		result.PersistErr = err
		return
	}
	result.Record = rec
	result.Persisted = true
}

// call runs one backend lookup. Errors are logged and never returned; a
// degraded partial is still passed through.
func (r *Resolver) call(ctx context.Context, b Backend, q customer.Query) *customer.Partial {
	ctx = services.WithBackend(ctx, b.Name())
	logger := logging.WithContext(ctx, r.logger)

	start := time.Now()
	p, err := b.Lookup(ctx, q)
	latency := time.Since(start)

	if err != nil {
		event := "backend_unavailable"
		switch {
		case errors.Is(err, services.ErrTimeout):
			event = "backend_timeout"
		case services.IsFatal(err):
			// Backends must mark their failures unavailable; anything else
			// is a bug in the backend and is still contained here.
			event = "backend_contract_violation"
		}
		logging.WarnWithContext(logger, "backend lookup failed", event,
			logging.Error(err),
			logging.Duration("latency", latency),
			logging.Bool("degraded_result", p != nil),
			logging.String(logging.FieldErrorHint, backendHint(b.Name())),
			logging.String(logging.FieldImpact, "fields owned by this backend are left as placeholders"))
		return p
	}

	logger.Debug("backend lookup finished",
		logging.Duration("latency", latency),
		logging.Bool("hit", p != nil))
	return p
}

func backendHint(name string) string {
	switch name {
	case "relational":
		return "check relational.dsn, VPN access and read grants"
	case "contract_api":
		return "check contract_api.base_url and credentials"
	default:
		return "check backend connectivity"
	}
}
