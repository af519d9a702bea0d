package repositories

import (
	"context"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
)

// InvoiceRepository persists customer invoices.
type InvoiceRepository interface {
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// UpdateInvoice replaces the mutable fields (balance, status, journal
	// linkage) of an existing invoice.
	UpdateInvoice(ctx context.Context, invoice domain.Invoice) error

	ListInvoicesByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Invoice, error)
}

// CreditRepository persists customer and vendor credits.
type CreditRepository interface {
	SaveCredit(ctx context.Context, credit domain.CreditNote) error
	FindCreditByID(ctx context.Context, creditID string) (*domain.CreditNote, error)
	UpdateCredit(ctx context.Context, credit domain.CreditNote) error
}
