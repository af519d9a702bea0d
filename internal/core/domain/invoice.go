package domain

import "github.com/shopspring/decimal"

// InvoiceStatus is the lifecycle state of a customer invoice.
type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "DRAFT"
	InvoiceSent    InvoiceStatus = "SENT"
	InvoicePartial InvoiceStatus = "PARTIAL"
	InvoicePaid    InvoiceStatus = "PAID"
	InvoiceVoided  InvoiceStatus = "VOIDED"
)

// LineItem is a single billable line on an invoice, bill or purchase order.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

// LineTotal sums the amounts of the given line items.
func LineTotal(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

// Invoice is a customer receivable. BalanceDue stays within [0, Total];
// voiding is only possible while no payment or credit has been applied.
type Invoice struct {
	InvoiceID     string          `json:"invoiceID"`
	InvoiceNumber int64           `json:"invoiceNumber"`
	CustomerID    string          `json:"customerID"`
	Lines         []LineItem      `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	BalanceDue    decimal.Decimal `json:"balanceDue"`
	Status        InvoiceStatus   `json:"status"`
	JournalID     *string         `json:"journalID,omitempty"` // entry posted on send
	AuditFields
}
