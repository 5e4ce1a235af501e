package testsupport

import (
	"context"
	"testing"
	"time"

	"custid/internal/config"
	"custid/internal/customer"
	"custid/internal/store"
)

// MustOpenStore opens the store configured in cfg.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg.Store.Path, store.WithLockTimeout(cfg.LockTimeout()))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return s
}

// SeedStore confirms each candidate into s, failing the test on error.
func SeedStore(t testing.TB, s *store.Store, candidates ...customer.Partial) {
	t.Helper()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for _, c := range candidates {
		if _, _, err := s.Upsert(context.Background(), c, now); err != nil {
			t.Fatalf("seed %s: %v", c.CompanyName, err)
		}
	}
}
