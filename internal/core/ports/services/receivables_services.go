package services

import (
	"context"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/agrodesk/genfin_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// ReceivablesSvcFacade manages customer invoices, credits and payments.
type ReceivablesSvcFacade interface {
	CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest, actorID string) (*domain.Customer, error)
	GetCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error)

	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest, actorID string) (*domain.Invoice, error)
	GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	ListInvoicesByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Invoice, error)

	// SendInvoice transitions draft->sent and posts the receivable entry.
	SendInvoice(ctx context.Context, invoiceID string, actorID string) (*domain.Invoice, error)

	// ApplyPayment rejects amounts above the current balance due outright;
	// callers must split payments themselves.
	ApplyPayment(ctx context.Context, invoiceID string, amount decimal.Decimal, actorID string) (*domain.Invoice, error)

	// IssueCreditMemo issues a standalone customer credit.
	IssueCreditMemo(ctx context.Context, customerID string, amount decimal.Decimal, actorID string) (*domain.CreditNote, error)

	// ApplyCredit applies part of a credit to an invoice of the same owner,
	// decrementing both atomically.
	ApplyCredit(ctx context.Context, creditID, invoiceID string, amount decimal.Decimal, actorID string) (*domain.CreditNote, *domain.Invoice, error)

	// VoidInvoice reverses and voids an invoice that has no payments applied.
	VoidInvoice(ctx context.Context, invoiceID string, actorID string) (*domain.Invoice, error)
}
