package dto

import (
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LineItemRequest is a billable line on an invoice, bill or purchase order.
type LineItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required"`
}

// ToLineItems converts line requests into domain line items, computing the
// per-line amounts.
func ToLineItems(reqs []LineItemRequest) []domain.LineItem {
	lines := make([]domain.LineItem, len(reqs))
	for i, r := range reqs {
		lines[i] = domain.LineItem{
			Description: r.Description,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			Amount:      r.Quantity.Mul(r.UnitPrice),
		}
	}
	return lines
}

// CreateInvoiceRequest creates a draft customer invoice.
type CreateInvoiceRequest struct {
	CustomerID string            `json:"customerID" binding:"required"`
	Lines      []LineItemRequest `json:"lines" binding:"required,min=1,dive"`
}

// ApplyPaymentRequest applies a payment against an invoice or bill.
type ApplyPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// IssueCreditRequest issues a standalone credit memo.
type IssueCreditRequest struct {
	OwnerID string          `json:"ownerID" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

// ApplyCreditRequest applies part of a credit to an invoice or bill.
type ApplyCreditRequest struct {
	TargetID string          `json:"targetID" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}
