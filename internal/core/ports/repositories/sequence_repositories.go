package repositories

import (
	"context"
	"time"
)

// SequenceRepository persists the gapless scoped counters. NextValue must be
// atomic: no two callers may ever observe the same value for a scope.
type SequenceRepository interface {
	// InitScope creates a scope with the given current value. Fails with
	// ErrDuplicate if the scope already exists.
	InitScope(ctx context.Context, scopeKey string, current int64, actorID string, now time.Time) error

	// NextValue atomically increments and returns the new value for a scope.
	// Fails with ErrScopeNotFound for a scope that was never initialized.
	NextValue(ctx context.Context, scopeKey string) (int64, error)

	// CurrentValue reads the last issued value without incrementing.
	CurrentValue(ctx context.Context, scopeKey string) (int64, error)
}
