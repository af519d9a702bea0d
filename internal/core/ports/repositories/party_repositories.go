package repositories

import (
	"context"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
)

// CustomerRepository persists receivables counterparties.
type CustomerRepository interface {
	SaveCustomer(ctx context.Context, customer domain.Customer) error
	FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error)
}

// VendorRepository persists payables counterparties.
type VendorRepository interface {
	SaveVendor(ctx context.Context, vendor domain.Vendor) error
	FindVendorByID(ctx context.Context, vendorID string) (*domain.Vendor, error)
}
