package domain

import "github.com/shopspring/decimal"

// ReconciliationStatus is the state of a bank reconciliation.
type ReconciliationStatus string

const (
	ReconciliationInProgress  ReconciliationStatus = "IN_PROGRESS"
	ReconciliationCompleted   ReconciliationStatus = "COMPLETED"
	ReconciliationDiscrepancy ReconciliationStatus = "DISCREPANCY"
)

// Reconciliation matches a bank account's postings against an external
// statement. ComputedBalance and Difference are filled on completion; a
// discrepancy is reported, not fatal.
type Reconciliation struct {
	ReconciliationID  string               `json:"reconciliationID"`
	BankAccountID     string               `json:"bankAccountID"`
	StatementBalance  decimal.Decimal      `json:"statementBalance"`
	ComputedBalance   decimal.Decimal      `json:"computedBalance"`
	Difference        decimal.Decimal      `json:"difference"`
	Status            ReconciliationStatus `json:"status"`
	ClearedPostingIDs []string             `json:"clearedPostingIDs,omitempty"`
	AuditFields
}
