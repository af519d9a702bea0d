package domain

import "github.com/shopspring/decimal"

// CreditOwnerType distinguishes customer credits from vendor credits.
type CreditOwnerType string

const (
	CustomerCredit CreditOwnerType = "CUSTOMER"
	VendorCredit   CreditOwnerType = "VENDOR"
)

// CreditNote is an open credit balance owned by exactly one customer or
// vendor. RemainingBalance stays within [0, OriginalAmount] and a credit may
// only be applied to an invoice or bill of its owner.
type CreditNote struct {
	CreditID         string          `json:"creditID"`
	OwnerType        CreditOwnerType `json:"ownerType"`
	OwnerID          string          `json:"ownerID"`
	OriginalAmount   decimal.Decimal `json:"originalAmount"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	JournalID        *string         `json:"journalID,omitempty"`
	AuditFields
}
