package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	portsrepo "github.com/agrodesk/genfin_backend/internal/core/ports/repositories"
)

// PgxBankingRepository persists bank accounts, checks, reconciliations and
// ACH batches. Cleared posting flags live in their own table keyed by
// (reconciliation_id, posting_id) so re-marking is an idempotent upsert.
type PgxBankingRepository struct {
	BaseRepository
}

func newPgxBankingRepository(pool *pgxpool.Pool) *PgxBankingRepository {
	return &PgxBankingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BankAccountRepository = (*PgxBankingRepository)(nil)
var _ portsrepo.CheckRepository = (*PgxBankingRepository)(nil)
var _ portsrepo.ReconciliationRepository = (*PgxBankingRepository)(nil)
var _ portsrepo.AchBatchRepository = (*PgxBankingRepository)(nil)

// SaveBankAccount implements portsrepo.BankAccountRepository.
func (r *PgxBankingRepository) SaveBankAccount(ctx context.Context, account domain.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (bank_account_id, name, ledger_account_id, ach_enabled, check_printing_enabled, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		account.BankAccountID,
		account.Name,
		account.LedgerAccountID,
		account.AchEnabled,
		account.CheckPrintingEnabled,
		account.CreatedAt,
		account.CreatedBy,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert bank account "+account.BankAccountID, err)
	}
	return nil
}

// FindBankAccountByID implements portsrepo.BankAccountRepository.
func (r *PgxBankingRepository) FindBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	query := `
		SELECT bank_account_id, name, ledger_account_id, ach_enabled, check_printing_enabled, created_at, created_by, last_updated_at, last_updated_by
		FROM bank_accounts WHERE bank_account_id = $1;
	`
	var b domain.BankAccount
	err := r.Pool.QueryRow(ctx, query, bankAccountID).Scan(
		&b.BankAccountID, &b.Name, &b.LedgerAccountID, &b.AchEnabled, &b.CheckPrintingEnabled,
		&b.CreatedAt, &b.CreatedBy, &b.LastUpdatedAt, &b.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find bank account "+bankAccountID, err)
	}
	return &b, nil
}

// UpdateBankAccount implements portsrepo.BankAccountRepository.
func (r *PgxBankingRepository) UpdateBankAccount(ctx context.Context, account domain.BankAccount) error {
	query := `
		UPDATE bank_accounts
		SET name = $2, ach_enabled = $3, check_printing_enabled = $4, last_updated_at = $5, last_updated_by = $6
		WHERE bank_account_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		account.BankAccountID,
		account.Name,
		account.AchEnabled,
		account.CheckPrintingEnabled,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update bank account "+account.BankAccountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const checkColumns = `check_id, bank_account_id, check_number, payee, amount, status, journal_id, created_at, created_by, last_updated_at, last_updated_by`

func scanCheck(row pgx.Row) (domain.Check, error) {
	var c domain.Check
	err := row.Scan(
		&c.CheckID,
		&c.BankAccountID,
		&c.CheckNumber,
		&c.Payee,
		&c.Amount,
		&c.Status,
		&c.JournalID,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	return c, err
}

// SaveCheck implements portsrepo.CheckRepository. The unique index on
// (bank_account_id, check_number) is the storage-level backstop for the
// allocator's no-duplicates guarantee.
func (r *PgxBankingRepository) SaveCheck(ctx context.Context, check domain.Check) error {
	query := `
		INSERT INTO checks (` + checkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		check.CheckID,
		check.BankAccountID,
		check.CheckNumber,
		check.Payee,
		check.Amount,
		check.Status,
		check.JournalID,
		check.CreatedAt,
		check.CreatedBy,
		check.LastUpdatedAt,
		check.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert check "+check.CheckID, err)
	}
	return nil
}

// FindCheckByID implements portsrepo.CheckRepository.
func (r *PgxBankingRepository) FindCheckByID(ctx context.Context, checkID string) (*domain.Check, error) {
	query := `SELECT ` + checkColumns + ` FROM checks WHERE check_id = $1;`
	check, err := scanCheck(r.Pool.QueryRow(ctx, query, checkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find check "+checkID, err)
	}
	return &check, nil
}

// UpdateCheck implements portsrepo.CheckRepository.
func (r *PgxBankingRepository) UpdateCheck(ctx context.Context, check domain.Check) error {
	query := `
		UPDATE checks
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE check_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, check.CheckID, check.Status, check.LastUpdatedAt, check.LastUpdatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update check "+check.CheckID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListChecksByBankAccount implements portsrepo.CheckRepository, in check
// number order.
func (r *PgxBankingRepository) ListChecksByBankAccount(ctx context.Context, bankAccountID string, limit, offset int) ([]domain.Check, error) {
	query := `
		SELECT ` + checkColumns + `
		FROM checks
		WHERE bank_account_id = $1
		ORDER BY check_number
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, bankAccountID, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list checks for bank account "+bankAccountID, err)
	}
	defer rows.Close()

	checks := make([]domain.Check, 0, limit)
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan check row", err)
		}
		checks = append(checks, check)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading check rows", err)
	}
	return checks, nil
}

// SaveReconciliation implements portsrepo.ReconciliationRepository.
func (r *PgxBankingRepository) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	query := `
		INSERT INTO reconciliations (reconciliation_id, bank_account_id, statement_balance, computed_balance, difference, status, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		rec.ReconciliationID,
		rec.BankAccountID,
		rec.StatementBalance,
		rec.ComputedBalance,
		rec.Difference,
		rec.Status,
		rec.CreatedAt,
		rec.CreatedBy,
		rec.LastUpdatedAt,
		rec.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert reconciliation "+rec.ReconciliationID, err)
	}
	return nil
}

const reconciliationColumns = `reconciliation_id, bank_account_id, statement_balance, computed_balance, difference, status, created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxBankingRepository) scanReconciliationWithCleared(ctx context.Context, row pgx.Row) (*domain.Reconciliation, error) {
	var rec domain.Reconciliation
	err := row.Scan(
		&rec.ReconciliationID,
		&rec.BankAccountID,
		&rec.StatementBalance,
		&rec.ComputedBalance,
		&rec.Difference,
		&rec.Status,
		&rec.CreatedAt,
		&rec.CreatedBy,
		&rec.LastUpdatedAt,
		&rec.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}

	clearedQuery := `SELECT posting_id FROM reconciliation_items WHERE reconciliation_id = $1 ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, clearedQuery, rec.ReconciliationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var postingID string
		if err := rows.Scan(&postingID); err != nil {
			return nil, err
		}
		rec.ClearedPostingIDs = append(rec.ClearedPostingIDs, postingID)
	}
	return &rec, rows.Err()
}

// FindReconciliationByID implements portsrepo.ReconciliationRepository.
func (r *PgxBankingRepository) FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE reconciliation_id = $1;`
	rec, err := r.scanReconciliationWithCleared(ctx, r.Pool.QueryRow(ctx, query, reconciliationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find reconciliation "+reconciliationID, err)
	}
	return rec, nil
}

// FindActiveByBankAccount implements portsrepo.ReconciliationRepository.
func (r *PgxBankingRepository) FindActiveByBankAccount(ctx context.Context, bankAccountID string) (*domain.Reconciliation, error) {
	query := `
		SELECT ` + reconciliationColumns + `
		FROM reconciliations
		WHERE bank_account_id = $1 AND status = 'IN_PROGRESS';
	`
	rec, err := r.scanReconciliationWithCleared(ctx, r.Pool.QueryRow(ctx, query, bankAccountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no active reconciliation for bank account " + bankAccountID)
		}
		return nil, apperrors.NewAppError(500, "failed to find active reconciliation for bank account "+bankAccountID, err)
	}
	return rec, nil
}

// AddClearedPostings implements portsrepo.ReconciliationRepository.
func (r *PgxBankingRepository) AddClearedPostings(ctx context.Context, reconciliationID string, postingIDs []string, actorID string, now time.Time) error {
	query := `
		INSERT INTO reconciliation_items (reconciliation_id, posting_id, created_at, created_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (reconciliation_id, posting_id) DO NOTHING;
	`
	batch := &pgx.Batch{}
	for _, postingID := range postingIDs {
		batch.Queue(query, reconciliationID, postingID, now, actorID)
	}
	if err := r.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to record cleared postings for reconciliation "+reconciliationID, err)
	}
	return nil
}

// UpdateReconciliation implements portsrepo.ReconciliationRepository.
func (r *PgxBankingRepository) UpdateReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	query := `
		UPDATE reconciliations
		SET computed_balance = $2, difference = $3, status = $4, last_updated_at = $5, last_updated_by = $6
		WHERE reconciliation_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		rec.ReconciliationID,
		rec.ComputedBalance,
		rec.Difference,
		rec.Status,
		rec.LastUpdatedAt,
		rec.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update reconciliation "+rec.ReconciliationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveAchBatch implements portsrepo.AchBatchRepository.
func (r *PgxBankingRepository) SaveAchBatch(ctx context.Context, batch domain.AchBatch) error {
	items, err := json.Marshal(batch.Items)
	if err != nil {
		return apperrors.NewAppError(500, "failed to marshal ACH items", err)
	}
	query := `
		INSERT INTO ach_batches (ach_batch_id, bank_account_id, items, total, status, journal_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = r.Pool.Exec(ctx, query,
		batch.AchBatchID,
		batch.BankAccountID,
		items,
		batch.Total,
		batch.Status,
		batch.JournalID,
		batch.CreatedAt,
		batch.CreatedBy,
		batch.LastUpdatedAt,
		batch.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert ACH batch "+batch.AchBatchID, err)
	}
	return nil
}

// FindAchBatchByID implements portsrepo.AchBatchRepository.
func (r *PgxBankingRepository) FindAchBatchByID(ctx context.Context, achBatchID string) (*domain.AchBatch, error) {
	query := `
		SELECT ach_batch_id, bank_account_id, items, total, status, journal_id, created_at, created_by, last_updated_at, last_updated_by
		FROM ach_batches WHERE ach_batch_id = $1;
	`
	var batch domain.AchBatch
	var items []byte
	err := r.Pool.QueryRow(ctx, query, achBatchID).Scan(
		&batch.AchBatchID, &batch.BankAccountID, &items, &batch.Total, &batch.Status, &batch.JournalID,
		&batch.CreatedAt, &batch.CreatedBy, &batch.LastUpdatedAt, &batch.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find ACH batch "+achBatchID, err)
	}
	if err := json.Unmarshal(items, &batch.Items); err != nil {
		return nil, apperrors.NewAppError(500, "failed to unmarshal ACH items", err)
	}
	return &batch, nil
}
