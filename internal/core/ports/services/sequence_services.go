package services

import "context"

// SequenceSvcFacade issues gapless, unique integers scoped to a key. A value
// returned by Next is consumed forever; callers must not retry after success.
type SequenceSvcFacade interface {
	// InitScope creates a scope so that the first Next call returns next.
	InitScope(ctx context.Context, scopeKey string, next int64, actorID string) error

	// Next atomically issues the next value for a scope.
	Next(ctx context.Context, scopeKey string) (int64, error)

	// Peek returns the value the next successful Next call would issue.
	Peek(ctx context.Context, scopeKey string) (int64, error)
}
