package domain

import "github.com/shopspring/decimal"

// AchBatchStatus is the state of an ACH batch.
type AchBatchStatus string

const (
	AchPending   AchBatchStatus = "PENDING"
	AchSubmitted AchBatchStatus = "SUBMITTED"
)

// AchItem is a single electronic payment instruction within a batch.
type AchItem struct {
	Payee         string          `json:"payee"`
	RoutingNumber string          `json:"routingNumber"`
	AccountNumber string          `json:"accountNumber"`
	Amount        decimal.Decimal `json:"amount"`
}

// AchBatch is a grouped set of electronic payment instructions submitted
// together against one bank account.
type AchBatch struct {
	AchBatchID    string          `json:"achBatchID"`
	BankAccountID string          `json:"bankAccountID"`
	Items         []AchItem       `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Status        AchBatchStatus  `json:"status"`
	JournalID     *string         `json:"journalID,omitempty"`
	AuditFields
}
