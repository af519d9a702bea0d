package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
)

// SaveBankAccount implements repositories.BankAccountRepository.
func (s *Store) SaveBankAccount(ctx context.Context, account domain.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bankAccounts[account.BankAccountID]; exists {
		return fmt.Errorf("%w: bank account %s", apperrors.ErrDuplicate, account.BankAccountID)
	}
	s.bankAccounts[account.BankAccountID] = account
	return nil
}

// FindBankAccountByID implements repositories.BankAccountRepository.
func (s *Store) FindBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.bankAccounts[bankAccountID]
	if !ok {
		return nil, fmt.Errorf("%w: bank account %s", apperrors.ErrNotFound, bankAccountID)
	}
	return &account, nil
}

// UpdateBankAccount implements repositories.BankAccountRepository.
func (s *Store) UpdateBankAccount(ctx context.Context, account domain.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bankAccounts[account.BankAccountID]; !ok {
		return fmt.Errorf("%w: bank account %s", apperrors.ErrNotFound, account.BankAccountID)
	}
	s.bankAccounts[account.BankAccountID] = account
	return nil
}

// SaveCheck implements repositories.CheckRepository.
func (s *Store) SaveCheck(ctx context.Context, check domain.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.checks[check.CheckID]; exists {
		return fmt.Errorf("%w: check %s", apperrors.ErrDuplicate, check.CheckID)
	}
	s.checks[check.CheckID] = check
	s.checkOrder = append(s.checkOrder, check.CheckID)
	return nil
}

// FindCheckByID implements repositories.CheckRepository.
func (s *Store) FindCheckByID(ctx context.Context, checkID string) (*domain.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	check, ok := s.checks[checkID]
	if !ok {
		return nil, fmt.Errorf("%w: check %s", apperrors.ErrNotFound, checkID)
	}
	return &check, nil
}

// UpdateCheck implements repositories.CheckRepository.
func (s *Store) UpdateCheck(ctx context.Context, check domain.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checks[check.CheckID]; !ok {
		return fmt.Errorf("%w: check %s", apperrors.ErrNotFound, check.CheckID)
	}
	s.checks[check.CheckID] = check
	return nil
}

// ListChecksByBankAccount implements repositories.CheckRepository, in
// issuance order.
func (s *Store) ListChecksByBankAccount(ctx context.Context, bankAccountID string, limit, offset int) ([]domain.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []domain.Check
	for _, id := range s.checkOrder {
		if check := s.checks[id]; check.BankAccountID == bankAccountID {
			matched = append(matched, check)
		}
	}
	if offset >= len(matched) {
		return []domain.Check{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// SaveReconciliation implements repositories.ReconciliationRepository.
func (s *Store) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reconciliations[rec.ReconciliationID]; exists {
		return fmt.Errorf("%w: reconciliation %s", apperrors.ErrDuplicate, rec.ReconciliationID)
	}
	rec.ClearedPostingIDs = cloneStrings(rec.ClearedPostingIDs)
	s.reconciliations[rec.ReconciliationID] = rec
	return nil
}

// FindReconciliationByID implements repositories.ReconciliationRepository.
func (s *Store) FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.reconciliations[reconciliationID]
	if !ok {
		return nil, fmt.Errorf("%w: reconciliation %s", apperrors.ErrNotFound, reconciliationID)
	}
	rec.ClearedPostingIDs = cloneStrings(rec.ClearedPostingIDs)
	return &rec, nil
}

// FindActiveByBankAccount implements repositories.ReconciliationRepository.
func (s *Store) FindActiveByBankAccount(ctx context.Context, bankAccountID string) (*domain.Reconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.reconciliations {
		if rec.BankAccountID == bankAccountID && rec.Status == domain.ReconciliationInProgress {
			rec.ClearedPostingIDs = cloneStrings(rec.ClearedPostingIDs)
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: no active reconciliation for bank account %s", apperrors.ErrNotFound, bankAccountID)
}

// AddClearedPostings implements repositories.ReconciliationRepository,
// deduplicating ids already marked.
func (s *Store) AddClearedPostings(ctx context.Context, reconciliationID string, postingIDs []string, actorID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.reconciliations[reconciliationID]
	if !ok {
		return fmt.Errorf("%w: reconciliation %s", apperrors.ErrNotFound, reconciliationID)
	}

	existing := make(map[string]struct{}, len(rec.ClearedPostingIDs))
	for _, id := range rec.ClearedPostingIDs {
		existing[id] = struct{}{}
	}
	for _, id := range postingIDs {
		if _, dup := existing[id]; dup {
			continue
		}
		existing[id] = struct{}{}
		rec.ClearedPostingIDs = append(rec.ClearedPostingIDs, id)
	}
	rec.Touch(actorID, now)
	s.reconciliations[reconciliationID] = rec
	return nil
}

// UpdateReconciliation implements repositories.ReconciliationRepository.
func (s *Store) UpdateReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reconciliations[rec.ReconciliationID]; !ok {
		return fmt.Errorf("%w: reconciliation %s", apperrors.ErrNotFound, rec.ReconciliationID)
	}
	rec.ClearedPostingIDs = cloneStrings(rec.ClearedPostingIDs)
	s.reconciliations[rec.ReconciliationID] = rec
	return nil
}

// SaveAchBatch implements repositories.AchBatchRepository.
func (s *Store) SaveAchBatch(ctx context.Context, batch domain.AchBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.achBatches[batch.AchBatchID]; exists {
		return fmt.Errorf("%w: ACH batch %s", apperrors.ErrDuplicate, batch.AchBatchID)
	}
	s.achBatches[batch.AchBatchID] = batch
	return nil
}

// FindAchBatchByID implements repositories.AchBatchRepository.
func (s *Store) FindAchBatchByID(ctx context.Context, achBatchID string) (*domain.AchBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.achBatches[achBatchID]
	if !ok {
		return nil, fmt.Errorf("%w: ACH batch %s", apperrors.ErrNotFound, achBatchID)
	}
	return &batch, nil
}
