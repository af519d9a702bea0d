package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	portsrepo "github.com/agrodesk/genfin_backend/internal/core/ports/repositories"
)

// PgxSequenceRepository persists the gapless scoped counters. The increment
// is one UPDATE .. RETURNING statement, so concurrent callers on different
// server instances still never observe the same value.
type PgxSequenceRepository struct {
	BaseRepository
}

func newPgxSequenceRepository(pool *pgxpool.Pool) *PgxSequenceRepository {
	return &PgxSequenceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SequenceRepository = (*PgxSequenceRepository)(nil)

// InitScope implements portsrepo.SequenceRepository.
func (r *PgxSequenceRepository) InitScope(ctx context.Context, scopeKey string, current int64, actorID string, now time.Time) error {
	query := `
		INSERT INTO sequences (scope_key, current_value, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $3, $4);
	`
	_, err := r.Pool.Exec(ctx, query, scopeKey, current, now, actorID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert sequence scope "+scopeKey, err)
	}
	return nil
}

// NextValue implements portsrepo.SequenceRepository.
func (r *PgxSequenceRepository) NextValue(ctx context.Context, scopeKey string) (int64, error) {
	query := `
		UPDATE sequences
		SET current_value = current_value + 1, last_updated_at = now()
		WHERE scope_key = $1
		RETURNING current_value;
	`
	var value int64
	if err := r.Pool.QueryRow(ctx, query, scopeKey).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrScopeNotFound
		}
		return 0, apperrors.NewAppError(500, "failed to increment sequence scope "+scopeKey, err)
	}
	return value, nil
}

// CurrentValue implements portsrepo.SequenceRepository.
func (r *PgxSequenceRepository) CurrentValue(ctx context.Context, scopeKey string) (int64, error) {
	query := `SELECT current_value FROM sequences WHERE scope_key = $1;`
	var value int64
	if err := r.Pool.QueryRow(ctx, query, scopeKey).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrScopeNotFound
		}
		return 0, apperrors.NewAppError(500, "failed to read sequence scope "+scopeKey, err)
	}
	return value, nil
}
