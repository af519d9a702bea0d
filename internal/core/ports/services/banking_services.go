package services

import (
	"context"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/agrodesk/genfin_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// BankingSvcFacade manages bank accounts, checks, transfers, reconciliation
// and ACH batches.
type BankingSvcFacade interface {
	CreateBankAccount(ctx context.Context, req dto.CreateBankAccountRequest, actorID string) (*domain.BankAccount, error)
	GetBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error)

	// WriteCheck allocates the next check number and posts the payment. The
	// balance gate runs before allocation so failed writes never burn a
	// number.
	WriteCheck(ctx context.Context, req dto.WriteCheckRequest, actorID string) (*domain.Check, error)
	GetCheckByID(ctx context.Context, checkID string) (*domain.Check, error)
	PrintCheck(ctx context.Context, checkID string, actorID string) (*domain.Check, error)
	ClearCheck(ctx context.Context, checkID string, actorID string) (*domain.Check, error)
	VoidCheck(ctx context.Context, checkID string, actorID string) (*domain.Check, error)

	// Transfer posts one entry with two postings so both balances move or
	// neither does.
	Transfer(ctx context.Context, req dto.TransferRequest, actorID string) (*domain.JournalEntry, error)

	StartReconciliation(ctx context.Context, bankAccountID string, statementBalance decimal.Decimal, actorID string) (*domain.Reconciliation, error)
	MarkCleared(ctx context.Context, reconciliationID string, postingIDs []string, actorID string) error
	CompleteReconciliation(ctx context.Context, reconciliationID string, actorID string) (*domain.Reconciliation, error)
	GetReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error)

	CreateAchBatch(ctx context.Context, req dto.CreateAchBatchRequest, actorID string) (*domain.AchBatch, error)
}
