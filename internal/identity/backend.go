package identity

import (
	"context"

	"custid/internal/customer"
)

// Backend is a remote source of customer fields.
//
// Requires returns "" for identity backends, which are queried with the raw
// classified query. A non-empty field marks a dependent backend: it is queried
// with that field's value once an identity backend has resolved it.
//
// Lookup must not abort resolution. On failure it returns nil, or a partial
// carrying placeholders for the fields it owns, together with the error.
type Backend interface {
	Name() string
	Requires() customer.Field
	Lookup(ctx context.Context, q customer.Query) (*customer.Partial, error)
}

func splitBackends(all []Backend) (identity, dependent []Backend) {
	for _, b := range all {
		if b == nil {
			continue
		}
		if b.Requires() == "" {
			identity = append(identity, b)
		} else {
			dependent = append(dependent, b)
		}
	}
	return identity, dependent
}
