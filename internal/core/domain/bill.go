package domain

import "github.com/shopspring/decimal"

// BillStatus is the lifecycle state of a vendor bill.
type BillStatus string

const (
	BillDraft   BillStatus = "DRAFT"
	BillSent    BillStatus = "SENT"
	BillPartial BillStatus = "PARTIAL"
	BillPaid    BillStatus = "PAID"
	BillVoided  BillStatus = "VOIDED"
)

// Bill is a vendor payable, the mirror of Invoice with the same invariants.
type Bill struct {
	BillID          string          `json:"billID"`
	BillNumber      int64           `json:"billNumber"`
	VendorID        string          `json:"vendorID"`
	Lines           []LineItem      `json:"lines"`
	Total           decimal.Decimal `json:"total"`
	BalanceDue      decimal.Decimal `json:"balanceDue"`
	Status          BillStatus      `json:"status"`
	JournalID       *string         `json:"journalID,omitempty"`
	PurchaseOrderID *string         `json:"purchaseOrderID,omitempty"`
	AuditFields
}
