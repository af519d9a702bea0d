package dto

import "github.com/shopspring/decimal"

// CreateBankAccountRequest creates a bank account wrapping a ledger account.
type CreateBankAccountRequest struct {
	Name                 string `json:"name" binding:"required"`
	LedgerAccountID      string `json:"ledgerAccountID" binding:"required"`
	AchEnabled           bool   `json:"achEnabled"`
	CheckPrintingEnabled bool   `json:"checkPrintingEnabled"`
	NextCheckNumber      int64  `json:"nextCheckNumber" binding:"required,min=1"`
}

// WriteCheckRequest issues a check against a bank account.
type WriteCheckRequest struct {
	BankAccountID    string          `json:"bankAccountID" binding:"required"`
	Payee            string          `json:"payee" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	ExpenseAccountID string          `json:"expenseAccountID"` // defaults to the engine's expense account
}

// TransferRequest moves funds between two ledger accounts atomically.
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountID" binding:"required"`
	ToAccountID   string          `json:"toAccountID" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}

// StartReconciliationRequest opens a reconciliation for a bank account.
type StartReconciliationRequest struct {
	BankAccountID    string          `json:"bankAccountID" binding:"required"`
	StatementBalance decimal.Decimal `json:"statementBalance" binding:"required"`
}

// MarkClearedRequest flags statement-matched postings on a reconciliation.
type MarkClearedRequest struct {
	PostingIDs []string `json:"postingIDs" binding:"required,min=1"`
}

// AchItemRequest is one electronic payment instruction.
type AchItemRequest struct {
	Payee         string          `json:"payee" binding:"required"`
	RoutingNumber string          `json:"routingNumber" binding:"required"`
	AccountNumber string          `json:"accountNumber" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}

// CreateAchBatchRequest submits a batch of ACH items for one bank account.
type CreateAchBatchRequest struct {
	BankAccountID string           `json:"bankAccountID" binding:"required"`
	Items         []AchItemRequest `json:"items" binding:"required,min=1,dive"`
}
