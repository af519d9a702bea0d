package services

import (
	"context"
	"fmt"
	"time"

	portsrepo "github.com/agrodesk/genfin_backend/internal/core/ports/repositories"
	portssvc "github.com/agrodesk/genfin_backend/internal/core/ports/services"
)

// sequenceService issues gapless scoped counters on top of the sequence
// repository. Atomicity lives in the repository (an increment-returning
// update, or the memory store's mutex); callers serialize via the
// coordinator when a number must stay aligned with other state, e.g. check
// numbers with bank balances.
type sequenceService struct {
	sequenceRepo portsrepo.SequenceRepository
}

// NewSequenceService creates the sequence allocator.
func NewSequenceService(sequenceRepo portsrepo.SequenceRepository) portssvc.SequenceSvcFacade {
	return &sequenceService{sequenceRepo: sequenceRepo}
}

var _ portssvc.SequenceSvcFacade = (*sequenceService)(nil)

// InitScope creates a scope so that the first Next call returns next.
func (s *sequenceService) InitScope(ctx context.Context, scopeKey string, next int64, actorID string) error {
	if next < 1 {
		next = 1
	}
	if err := s.sequenceRepo.InitScope(ctx, scopeKey, next-1, actorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to initialize sequence scope %s: %w", scopeKey, err)
	}
	return nil
}

// Next atomically issues the next value for a scope. A successful return
// consumes the value forever; callers must only retry after failures.
func (s *sequenceService) Next(ctx context.Context, scopeKey string) (int64, error) {
	return s.sequenceRepo.NextValue(ctx, scopeKey)
}

// Peek returns the value the next successful Next call would issue.
func (s *sequenceService) Peek(ctx context.Context, scopeKey string) (int64, error) {
	current, err := s.sequenceRepo.CurrentValue(ctx, scopeKey)
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}
