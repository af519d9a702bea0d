package repositories

import (
	"context"
	"time"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalReader defines read operations for journal data.
type JournalReader interface {
	// FindJournalByID retrieves a journal entry without its postings.
	FindJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error)

	// FindPostingsByJournalID retrieves the postings of one entry.
	FindPostingsByJournalID(ctx context.Context, journalID string) ([]domain.Posting, error)

	// FindPostingsByIDs retrieves postings by id; fails with ErrNotFound when
	// any id is missing.
	FindPostingsByIDs(ctx context.Context, postingIDs []string) ([]domain.Posting, error)

	// ListPostingsByAccountID retrieves all postings against one account in
	// chronological order.
	ListPostingsByAccountID(ctx context.Context, accountID string) ([]domain.Posting, error)

	// SumPostings computes the signed sum of postings against one account,
	// optionally bounded to entries dated at or before asOf.
	SumPostings(ctx context.Context, accountID string, asOf *time.Time) (decimal.Decimal, error)
}

// JournalWriter defines write operations for journal data. Entries are
// immutable once posted; the only permitted update is the reversal linkage.
type JournalWriter interface {
	// SaveJournal persists an entry, its postings and the derived account
	// balance updates atomically. A failure rolls back all of it.
	SaveJournal(ctx context.Context, entry domain.JournalEntry, postings []domain.Posting, balanceChanges map[string]decimal.Decimal) error

	// UpdateJournalStatusAndLinks marks an entry reversed and records the
	// reversing entry's id.
	UpdateJournalStatusAndLinks(ctx context.Context, journalID string, status domain.JournalStatus, reversingJournalID *string, updatedBy string, updatedAt time.Time) error
}

// JournalRepositoryFacade combines all journal repository interfaces.
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
