package services

import (
	"context"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/agrodesk/genfin_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// PayablesSvcFacade manages vendor bills, purchase orders, credits and
// payments. It mirrors the receivables engine with vendors in place of
// customers.
type PayablesSvcFacade interface {
	CreateVendor(ctx context.Context, req dto.CreateVendorRequest, actorID string) (*domain.Vendor, error)
	GetVendorByID(ctx context.Context, vendorID string) (*domain.Vendor, error)

	CreateBill(ctx context.Context, req dto.CreateBillRequest, actorID string) (*domain.Bill, error)
	GetBillByID(ctx context.Context, billID string) (*domain.Bill, error)
	ListBillsByVendor(ctx context.Context, vendorID string, limit, offset int) ([]domain.Bill, error)

	// SendBill transitions draft->sent and posts the payable entry.
	SendBill(ctx context.Context, billID string, actorID string) (*domain.Bill, error)

	ApplyPayment(ctx context.Context, billID string, amount decimal.Decimal, actorID string) (*domain.Bill, error)
	IssueCreditMemo(ctx context.Context, vendorID string, amount decimal.Decimal, actorID string) (*domain.CreditNote, error)
	ApplyCredit(ctx context.Context, creditID, billID string, amount decimal.Decimal, actorID string) (*domain.CreditNote, *domain.Bill, error)
	VoidBill(ctx context.Context, billID string, actorID string) (*domain.Bill, error)

	CreatePurchaseOrder(ctx context.Context, req dto.CreatePurchaseOrderRequest, actorID string) (*domain.PurchaseOrder, error)
	GetPurchaseOrderByID(ctx context.Context, poID string) (*domain.PurchaseOrder, error)
	ApprovePurchaseOrder(ctx context.Context, poID string, actorID string) (*domain.PurchaseOrder, error)
	ReceivePurchaseOrder(ctx context.Context, poID string, actorID string) (*domain.PurchaseOrder, error)

	// ConvertPOToBill turns a received purchase order into a draft bill; a
	// second call fails with ErrAlreadyConverted.
	ConvertPOToBill(ctx context.Context, poID string, actorID string) (*domain.Bill, error)
}
