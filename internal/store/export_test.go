package store

import "context"

// HoldLockForTest runs fn while holding the store write lock.
func HoldLockForTest(s *Store, fn func()) error {
	return s.withLock(context.Background(), func() error {
		fn()
		return nil
	})
}
