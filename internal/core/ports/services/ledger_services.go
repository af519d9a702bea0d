package services

import (
	"context"
	"time"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/agrodesk/genfin_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// LedgerSvcFacade is the ledger core: chart of accounts, posting and
// reversal. Posted entries are immutable.
type LedgerSvcFacade interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error)

	// Post validates and persists a balanced journal entry.
	Post(ctx context.Context, draft domain.EntryDraft, actorID string) (*domain.JournalEntry, error)

	// BalanceOf sums postings for an account; read-only, takes no
	// coordinator lock.
	BalanceOf(ctx context.Context, accountID string, asOf *time.Time) (decimal.Decimal, error)

	// Reverse posts a new entry with every posting side flipped, referencing
	// the original.
	Reverse(ctx context.Context, journalID string, actorID string) (*domain.JournalEntry, error)

	// GetJournalByID retrieves an entry with its postings populated.
	GetJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error)
}
