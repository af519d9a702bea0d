package domain

import "github.com/shopspring/decimal"

// PurchaseOrderStatus is the PO state machine:
// draft -> approved -> received -> converted.
type PurchaseOrderStatus string

const (
	PODraft     PurchaseOrderStatus = "DRAFT"
	POApproved  PurchaseOrderStatus = "APPROVED"
	POReceived  PurchaseOrderStatus = "RECEIVED"
	POConverted PurchaseOrderStatus = "CONVERTED"
)

// PurchaseOrder is a vendor purchase order. It has no financial effect until
// it is converted to a bill.
type PurchaseOrder struct {
	PurchaseOrderID string              `json:"purchaseOrderID"`
	VendorID        string              `json:"vendorID"`
	Lines           []LineItem          `json:"lines"`
	Total           decimal.Decimal     `json:"total"`
	Status          PurchaseOrderStatus `json:"status"`
	BillID          *string             `json:"billID,omitempty"` // set on conversion
	AuditFields
}
