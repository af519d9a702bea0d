package repositories

import (
	"context"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
)

// BillRepository persists vendor bills.
type BillRepository interface {
	SaveBill(ctx context.Context, bill domain.Bill) error
	FindBillByID(ctx context.Context, billID string) (*domain.Bill, error)
	UpdateBill(ctx context.Context, bill domain.Bill) error
	ListBillsByVendor(ctx context.Context, vendorID string, limit, offset int) ([]domain.Bill, error)
}

// PurchaseOrderRepository persists purchase orders.
type PurchaseOrderRepository interface {
	SavePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error
	FindPurchaseOrderByID(ctx context.Context, poID string) (*domain.PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error
}
