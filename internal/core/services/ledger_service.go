package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/coordinator"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	portsrepo "github.com/agrodesk/genfin_backend/internal/core/ports/repositories"
	portssvc "github.com/agrodesk/genfin_backend/internal/core/ports/services"
	"github.com/agrodesk/genfin_backend/internal/dto"
	"github.com/agrodesk/genfin_backend/internal/events"
	"github.com/agrodesk/genfin_backend/internal/middleware"
	"github.com/agrodesk/genfin_backend/internal/utils/accounting"
)

// ledgerService owns the chart of accounts and the journal. Entries are
// posted atomically and never edited; corrections are reversing entries.
//
// Post takes no coordinator locks itself: engines lock the resource keys
// they mutate before calling it, and the repository row-locks the affected
// accounts inside the posting transaction. Reverse mutates the original
// entry, so it holds the journal key for the read-then-link window.
type ledgerService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	journalRepo portsrepo.JournalRepositoryFacade
	coord       coordinator.Coordinator
	publisher   events.Publisher
}

// NewLedgerService creates the ledger core service.
func NewLedgerService(accountRepo portsrepo.AccountRepositoryFacade, journalRepo portsrepo.JournalRepositoryFacade, coord coordinator.Coordinator, publisher events.Publisher) portssvc.LedgerSvcFacade {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &ledgerService{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		coord:       coord,
		publisher:   publisher,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// CreateAccount adds an account to the chart of accounts.
func (s *ledgerService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:   uuid.NewString(),
		Name:        req.Name,
		AccountType: req.AccountType,
		Description: req.Description,
		IsActive:    true,
		Balance:     decimal.Zero,
		AuditFields: domain.NewAuditFields(actorID, now),
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("type", string(account.AccountType)))
	return &account, nil
}

// GetAccountByID retrieves a single account.
func (s *ledgerService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrUnknownAccount, accountID)
		}
		return nil, err
	}
	return account, nil
}

// ListAccounts retrieves accounts ordered by name.
func (s *ledgerService) ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.accountRepo.ListAccounts(ctx, limit, offset)
}

// Post validates a draft entry and persists it atomically: entry, postings
// and derived balance updates all commit or none do.
func (s *ledgerService) Post(ctx context.Context, draft domain.EntryDraft, actorID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := accounting.ValidateEntryBalance(draft.Postings); err != nil {
		return nil, err
	}

	accountIDs := make([]string, 0, len(draft.Postings))
	for _, p := range draft.Postings {
		accountIDs = append(accountIDs, p.AccountID)
	}
	accountsMap, err := s.accountRepo.FindAccountsByIDs(ctx, uniqueStrings(accountIDs))
	if err != nil {
		logger.Error("Failed to fetch accounts for posting", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range accountIDs {
		acc, found := accountsMap[id]
		if !found {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrUnknownAccount, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrUnknownAccount, id)
		}
	}

	now := time.Now().UTC()
	journalID := uuid.NewString()
	date := draft.Date
	if date.IsZero() {
		date = now
	}

	postings := make([]domain.Posting, len(draft.Postings))
	balanceChanges := make(map[string]decimal.Decimal)
	for i, p := range draft.Postings {
		posting := domain.Posting{
			PostingID:   uuid.NewString(),
			JournalID:   journalID,
			AccountID:   p.AccountID,
			Amount:      p.Amount,
			Side:        p.Side,
			AuditFields: domain.NewAuditFields(actorID, now),
		}
		postings[i] = posting

		signed, err := accounting.SignedAmount(posting, accountsMap[p.AccountID].AccountType)
		if err != nil {
			return nil, fmt.Errorf("internal error calculating balance changes: %w", err)
		}
		balanceChanges[p.AccountID] = balanceChanges[p.AccountID].Add(signed)
	}

	entry := domain.JournalEntry{
		JournalID:   journalID,
		JournalDate: date,
		Description: draft.Description,
		SourceType:  draft.SourceType,
		SourceID:    draft.SourceID,
		Status:      domain.Posted,
		Amount:      accounting.EntryAmount(postings),
		AuditFields: domain.NewAuditFields(actorID, now),
	}

	if err := s.journalRepo.SaveJournal(ctx, entry, postings, balanceChanges); err != nil {
		logger.Error("Failed to save journal entry", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	s.publish(ctx, events.TopicJournalPosted, events.JournalPosted{
		JournalID:  journalID,
		SourceType: string(entry.SourceType),
		SourceID:   entry.SourceID,
		Amount:     entry.Amount,
	})

	logger.Info("Journal entry posted", slog.String("journal_id", journalID), slog.String("source", string(entry.SourceType)))
	entry.Postings = postings
	return &entry, nil
}

// BalanceOf sums postings for an account. Read-only: no coordinator lock,
// the snapshot may trail in-flight writes.
func (s *ledgerService) BalanceOf(ctx context.Context, accountID string, asOf *time.Time) (decimal.Decimal, error) {
	if _, err := s.GetAccountByID(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	return s.journalRepo.SumPostings(ctx, accountID, asOf)
}

// Reverse posts a new entry with every posting side flipped, referencing the
// original entry. The journal key is held across the status check and the
// back-link update so racing reversals cannot both pass the reversed guard.
func (s *ledgerService) Reverse(ctx context.Context, journalID string, actorID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	release, err := s.coord.Acquire(ctx, "journal:"+journalID)
	if err != nil {
		return nil, err
	}
	defer release()

	original, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrEntryNotFound, journalID)
		}
		return nil, fmt.Errorf("failed to retrieve journal entry %s: %w", journalID, err)
	}

	if original.Status == domain.Reversed || original.ReversingJournalID != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAlreadyReversed, journalID)
	}
	if original.OriginalJournalID != nil {
		return nil, fmt.Errorf("%w: cannot reverse an entry that is itself a reversal", apperrors.ErrValidation)
	}

	originalPostings, err := s.journalRepo.FindPostingsByJournalID(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve postings for %s: %w", journalID, err)
	}

	accountIDs := make([]string, 0, len(originalPostings))
	for _, p := range originalPostings {
		accountIDs = append(accountIDs, p.AccountID)
	}
	accountsMap, err := s.accountRepo.FindAccountsByIDs(ctx, uniqueStrings(accountIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for reversal: %w", err)
	}

	now := time.Now().UTC()
	newJournalID := uuid.NewString()

	reversedPostings := make([]domain.Posting, len(originalPostings))
	balanceChanges := make(map[string]decimal.Decimal)
	for i, orig := range originalPostings {
		posting := domain.Posting{
			PostingID:   uuid.NewString(),
			JournalID:   newJournalID,
			AccountID:   orig.AccountID,
			Amount:      orig.Amount,
			Side:        orig.Side.Opposite(),
			AuditFields: domain.NewAuditFields(actorID, now),
		}
		reversedPostings[i] = posting

		acc, ok := accountsMap[orig.AccountID]
		if !ok {
			return nil, fmt.Errorf("internal error: account %s missing during reversal", orig.AccountID)
		}
		signed, err := accounting.SignedAmount(posting, acc.AccountType)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate signed amount for reversal: %w", err)
		}
		balanceChanges[orig.AccountID] = balanceChanges[orig.AccountID].Add(signed)
	}

	reversing := domain.JournalEntry{
		JournalID:         newJournalID,
		JournalDate:       original.JournalDate,
		Description:       fmt.Sprintf("Reversal of: %s", original.Description),
		SourceType:        domain.SourceReversal,
		SourceID:          original.JournalID,
		Status:            domain.Posted,
		OriginalJournalID: &original.JournalID,
		Amount:            original.Amount,
		AuditFields:       domain.NewAuditFields(actorID, now),
	}

	if err := s.journalRepo.SaveJournal(ctx, reversing, reversedPostings, balanceChanges); err != nil {
		logger.Error("Failed to save reversing entry", slog.String("error", err.Error()), slog.String("original_journal_id", journalID))
		return nil, fmt.Errorf("failed to save reversing entry: %w", err)
	}

	if err := s.journalRepo.UpdateJournalStatusAndLinks(ctx, original.JournalID, domain.Reversed, &newJournalID, actorID, now); err != nil {
		logger.Error("Failed to mark original entry reversed", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to update original entry status: %w", err)
	}

	s.publish(ctx, events.TopicJournalPosted, events.JournalPosted{
		JournalID:  newJournalID,
		SourceType: string(domain.SourceReversal),
		SourceID:   original.JournalID,
		Amount:     reversing.Amount,
	})

	logger.Info("Journal entry reversed", slog.String("journal_id", journalID), slog.String("reversing_journal_id", newJournalID))
	reversing.Postings = reversedPostings
	return &reversing, nil
}

// GetJournalByID retrieves an entry with its postings populated.
func (s *ledgerService) GetJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrEntryNotFound, journalID)
		}
		return nil, err
	}

	postings, err := s.journalRepo.FindPostingsByJournalID(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve postings for %s: %w", journalID, err)
	}
	entry.Postings = postings
	return entry, nil
}

func (s *ledgerService) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to publish event", slog.String("topic", topic), slog.String("error", err.Error()))
	}
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
