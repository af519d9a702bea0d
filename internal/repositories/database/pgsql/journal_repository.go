package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	portsrepo "github.com/agrodesk/genfin_backend/internal/core/ports/repositories"
)

// PgxJournalRepository persists journal entries and their postings.
type PgxJournalRepository struct {
	BaseRepository
	accountRepo *PgxAccountRepository
}

func newPgxJournalRepository(pool *pgxpool.Pool, accountRepo *PgxAccountRepository) *PgxJournalRepository {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const journalColumns = `journal_id, journal_date, description, source_type, source_id, status, original_journal_id, reversing_journal_id, amount, created_at, created_by, last_updated_at, last_updated_by`

const postingColumns = `posting_id, journal_id, account_id, amount, side, created_at, created_by, last_updated_at, last_updated_by`

func scanJournal(row pgx.Row) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := row.Scan(
		&e.JournalID,
		&e.JournalDate,
		&e.Description,
		&e.SourceType,
		&e.SourceID,
		&e.Status,
		&e.OriginalJournalID,
		&e.ReversingJournalID,
		&e.Amount,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	return e, err
}

func scanPosting(row pgx.Row) (domain.Posting, error) {
	var p domain.Posting
	err := row.Scan(
		&p.PostingID,
		&p.JournalID,
		&p.AccountID,
		&p.Amount,
		&p.Side,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	return p, err
}

// SaveJournal inserts the entry, row-locks the affected accounts, applies the
// balance deltas and batch-inserts the postings, all in one transaction.
func (r *PgxJournalRepository) SaveJournal(ctx context.Context, entry domain.JournalEntry, postings []domain.Posting, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	journalQuery := `
		INSERT INTO journals (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, journalQuery,
		entry.JournalID,
		entry.JournalDate,
		entry.Description,
		entry.SourceType,
		entry.SourceID,
		entry.Status,
		entry.OriginalJournalID,
		entry.ReversingJournalID,
		entry.Amount,
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert journal "+entry.JournalID, err)
	}

	accountIDs := make([]string, 0, len(balanceChanges))
	for accountID := range balanceChanges {
		accountIDs = append(accountIDs, accountID)
	}
	if _, err := r.accountRepo.findAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return err
	}
	if err := r.accountRepo.updateAccountBalancesInTx(ctx, tx, balanceChanges, entry.CreatedBy, entry.CreatedAt); err != nil {
		return err
	}

	postingQuery := `
		INSERT INTO postings (` + postingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	batch := &pgx.Batch{}
	for _, p := range postings {
		batch.Queue(postingQuery,
			p.PostingID,
			p.JournalID,
			p.AccountID,
			p.Amount,
			p.Side,
			p.CreatedAt,
			p.CreatedBy,
			p.LastUpdatedAt,
			p.LastUpdatedBy,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert postings for journal "+entry.JournalID, err)
	}

	return r.Commit(ctx, tx)
}

// FindJournalByID implements portsrepo.JournalReader.
func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE journal_id = $1;`
	entry, err := scanJournal(r.Pool.QueryRow(ctx, query, journalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find journal "+journalID, err)
	}
	return &entry, nil
}

// FindPostingsByJournalID implements portsrepo.JournalReader.
func (r *PgxJournalRepository) FindPostingsByJournalID(ctx context.Context, journalID string) ([]domain.Posting, error) {
	query := `SELECT ` + postingColumns + ` FROM postings WHERE journal_id = $1 ORDER BY posting_id;`
	rows, err := r.Pool.Query(ctx, query, journalID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query postings for journal "+journalID, err)
	}
	defer rows.Close()
	return collectPostings(rows)
}

// FindPostingsByIDs implements portsrepo.JournalReader. Fails with
// ErrNotFound when any id is missing.
func (r *PgxJournalRepository) FindPostingsByIDs(ctx context.Context, postingIDs []string) ([]domain.Posting, error) {
	query := `SELECT ` + postingColumns + ` FROM postings WHERE posting_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, postingIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query postings by ids", err)
	}
	defer rows.Close()

	postings, err := collectPostings(rows)
	if err != nil {
		return nil, err
	}
	if len(postings) != len(uniquePostingIDs(postingIDs)) {
		return nil, apperrors.ErrNotFound
	}
	return postings, nil
}

// ListPostingsByAccountID implements portsrepo.JournalReader.
func (r *PgxJournalRepository) ListPostingsByAccountID(ctx context.Context, accountID string) ([]domain.Posting, error) {
	query := `SELECT ` + postingColumns + ` FROM postings WHERE account_id = $1 ORDER BY created_at, posting_id;`
	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query postings for account "+accountID, err)
	}
	defer rows.Close()
	return collectPostings(rows)
}

// SumPostings computes the signed posting sum for an account in SQL, joining
// the account type to decide the sign of each line.
func (r *PgxJournalRepository) SumPostings(ctx context.Context, accountID string, asOf *time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE
				WHEN a.account_type IN ('ASSET', 'EXPENSE') AND p.side = 'DEBIT' THEN p.amount
				WHEN a.account_type IN ('ASSET', 'EXPENSE') THEN -p.amount
				WHEN p.side = 'CREDIT' THEN p.amount
				ELSE -p.amount
			END
		), 0)
		FROM postings p
		JOIN accounts a ON a.account_id = p.account_id
		JOIN journals j ON j.journal_id = p.journal_id
		WHERE p.account_id = $1
		  AND ($2::timestamptz IS NULL OR j.journal_date <= $2);
	`
	var sum decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, accountID, asOf).Scan(&sum); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum postings for account "+accountID, err)
	}
	return sum, nil
}

// UpdateJournalStatusAndLinks implements portsrepo.JournalWriter.
func (r *PgxJournalRepository) UpdateJournalStatusAndLinks(ctx context.Context, journalID string, status domain.JournalStatus, reversingJournalID *string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE journals
		SET status = $2, reversing_journal_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE journal_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, journalID, status, reversingJournalID, updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update journal "+journalID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func collectPostings(rows pgx.Rows) ([]domain.Posting, error) {
	var postings []domain.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan posting row", err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading posting rows", err)
	}
	return postings, nil
}

func uniquePostingIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
