package domain

import "github.com/shopspring/decimal"

// CheckStatus is the lifecycle state of a check. A cleared check can never
// transition to voided.
type CheckStatus string

const (
	CheckIssued  CheckStatus = "ISSUED"
	CheckPrinted CheckStatus = "PRINTED"
	CheckCleared CheckStatus = "CLEARED"
	CheckVoided  CheckStatus = "VOIDED"
)

// Check is a payment instrument drawn on a bank account. CheckNumber comes
// from the sequence allocator and is unique per bank account.
type Check struct {
	CheckID       string          `json:"checkID"`
	BankAccountID string          `json:"bankAccountID"`
	CheckNumber   int64           `json:"checkNumber"`
	Payee         string          `json:"payee"`
	Amount        decimal.Decimal `json:"amount"`
	Status        CheckStatus     `json:"status"`
	JournalID     *string         `json:"journalID,omitempty"`
	AuditFields
}
