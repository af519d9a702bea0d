package repositories

import (
	"context"
	"time"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
)

// BankAccountRepository persists bank accounts.
type BankAccountRepository interface {
	SaveBankAccount(ctx context.Context, account domain.BankAccount) error
	FindBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error)
	UpdateBankAccount(ctx context.Context, account domain.BankAccount) error
}

// CheckRepository persists checks.
type CheckRepository interface {
	SaveCheck(ctx context.Context, check domain.Check) error
	FindCheckByID(ctx context.Context, checkID string) (*domain.Check, error)
	UpdateCheck(ctx context.Context, check domain.Check) error
	ListChecksByBankAccount(ctx context.Context, bankAccountID string, limit, offset int) ([]domain.Check, error)
}

// ReconciliationRepository persists reconciliations and their cleared flags.
type ReconciliationRepository interface {
	SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error
	FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error)

	// FindActiveByBankAccount returns the in-progress reconciliation for a
	// bank account, or ErrNotFound when there is none.
	FindActiveByBankAccount(ctx context.Context, bankAccountID string) (*domain.Reconciliation, error)

	// AddClearedPostings records per-posting cleared flags, ignoring ids that
	// are already marked.
	AddClearedPostings(ctx context.Context, reconciliationID string, postingIDs []string, actorID string, now time.Time) error

	UpdateReconciliation(ctx context.Context, rec domain.Reconciliation) error
}

// AchBatchRepository persists ACH batches.
type AchBatchRepository interface {
	SaveAchBatch(ctx context.Context, batch domain.AchBatch) error
	FindAchBatchByID(ctx context.Context, achBatchID string) (*domain.AchBatch, error)
}
