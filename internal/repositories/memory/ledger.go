package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/agrodesk/genfin_backend/internal/utils/accounting"
)

// SaveAccount implements repositories.AccountWriter.
func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.AccountID]; exists {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
	}
	s.accounts[account.AccountID] = account
	s.accountOrder = append(s.accountOrder, account.AccountID)
	return nil
}

// FindAccountByID implements repositories.AccountReader.
func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &account, nil
}

// FindAccountsByIDs implements repositories.AccountReader.
func (s *Store) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := s.accounts[id]; ok {
			result[id] = account
		}
	}
	return result, nil
}

// ListAccounts implements repositories.AccountReader.
func (s *Store) ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		all = append(all, account)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	if offset >= len(all) {
		return []domain.Account{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// SaveJournal implements repositories.JournalWriter. Entry, postings and
// balance updates are applied under one lock so readers never observe a
// partial posting.
func (s *Store) SaveJournal(ctx context.Context, entry domain.JournalEntry, postings []domain.Posting, balanceChanges map[string]decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.journals[entry.JournalID]; exists {
		return fmt.Errorf("%w: journal %s", apperrors.ErrDuplicate, entry.JournalID)
	}
	for accountID := range balanceChanges {
		if _, ok := s.accounts[accountID]; !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
		}
	}

	entry.Postings = nil
	s.journals[entry.JournalID] = entry
	for _, p := range postings {
		s.postings[p.PostingID] = p
		s.postingOrder = append(s.postingOrder, p.PostingID)
	}
	for accountID, change := range balanceChanges {
		account := s.accounts[accountID]
		account.Balance = account.Balance.Add(change)
		s.accounts[accountID] = account
	}
	return nil
}

// FindJournalByID implements repositories.JournalReader.
func (s *Store) FindJournalByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.journals[journalID]
	if !ok {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	return &entry, nil
}

// FindPostingsByJournalID implements repositories.JournalReader.
func (s *Store) FindPostingsByJournalID(ctx context.Context, journalID string) ([]domain.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Posting
	for _, id := range s.postingOrder {
		if p := s.postings[id]; p.JournalID == journalID {
			result = append(result, p)
		}
	}
	return result, nil
}

// FindPostingsByIDs implements repositories.JournalReader.
func (s *Store) FindPostingsByIDs(ctx context.Context, postingIDs []string) ([]domain.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Posting, 0, len(postingIDs))
	for _, id := range postingIDs {
		p, ok := s.postings[id]
		if !ok {
			return nil, fmt.Errorf("%w: posting %s", apperrors.ErrNotFound, id)
		}
		result = append(result, p)
	}
	return result, nil
}

// ListPostingsByAccountID implements repositories.JournalReader.
func (s *Store) ListPostingsByAccountID(ctx context.Context, accountID string) ([]domain.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Posting
	for _, id := range s.postingOrder {
		if p := s.postings[id]; p.AccountID == accountID {
			result = append(result, p)
		}
	}
	return result, nil
}

// SumPostings implements repositories.JournalReader.
func (s *Store) SumPostings(ctx context.Context, accountID string, asOf *time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}

	sum := decimal.Zero
	for _, id := range s.postingOrder {
		p := s.postings[id]
		if p.AccountID != accountID {
			continue
		}
		if asOf != nil {
			if entry, ok := s.journals[p.JournalID]; ok && entry.JournalDate.After(*asOf) {
				continue
			}
		}
		signed, err := accounting.SignedAmount(p, account.AccountType)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(signed)
	}
	return sum, nil
}

// UpdateJournalStatusAndLinks implements repositories.JournalWriter.
func (s *Store) UpdateJournalStatusAndLinks(ctx context.Context, journalID string, status domain.JournalStatus, reversingJournalID *string, updatedBy string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.journals[journalID]
	if !ok {
		return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
	}
	entry.Status = status
	entry.ReversingJournalID = reversingJournalID
	entry.Touch(updatedBy, updatedAt)
	s.journals[journalID] = entry
	return nil
}

// InitScope implements repositories.SequenceRepository.
func (s *Store) InitScope(ctx context.Context, scopeKey string, current int64, actorID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sequences[scopeKey]; exists {
		return fmt.Errorf("%w: sequence scope %s", apperrors.ErrDuplicate, scopeKey)
	}
	s.sequences[scopeKey] = domain.Sequence{
		ScopeKey:     scopeKey,
		CurrentValue: current,
		AuditFields:  domain.NewAuditFields(actorID, now),
	}
	return nil
}

// NextValue implements repositories.SequenceRepository. The store mutex makes
// the increment atomic; no two callers ever observe the same value.
func (s *Store) NextValue(ctx context.Context, scopeKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[scopeKey]
	if !ok {
		return 0, fmt.Errorf("%w: %s", apperrors.ErrScopeNotFound, scopeKey)
	}
	seq.CurrentValue++
	s.sequences[scopeKey] = seq
	return seq.CurrentValue, nil
}

// CurrentValue implements repositories.SequenceRepository.
func (s *Store) CurrentValue(ctx context.Context, scopeKey string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.sequences[scopeKey]
	if !ok {
		return 0, fmt.Errorf("%w: %s", apperrors.ErrScopeNotFound, scopeKey)
	}
	return seq.CurrentValue, nil
}
