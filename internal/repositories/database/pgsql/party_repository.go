package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	portsrepo "github.com/agrodesk/genfin_backend/internal/core/ports/repositories"
)

// PgxPartyRepository persists customers and vendors.
type PgxPartyRepository struct {
	BaseRepository
}

func newPgxPartyRepository(pool *pgxpool.Pool) *PgxPartyRepository {
	return &PgxPartyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CustomerRepository = (*PgxPartyRepository)(nil)
var _ portsrepo.VendorRepository = (*PgxPartyRepository)(nil)

// SaveCustomer implements portsrepo.CustomerRepository.
func (r *PgxPartyRepository) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	query := `
		INSERT INTO customers (customer_id, name, email, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		customer.CustomerID,
		customer.Name,
		customer.Email,
		customer.IsActive,
		customer.CreatedAt,
		customer.CreatedBy,
		customer.LastUpdatedAt,
		customer.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert customer "+customer.CustomerID, err)
	}
	return nil
}

// FindCustomerByID implements portsrepo.CustomerRepository.
func (r *PgxPartyRepository) FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	query := `
		SELECT customer_id, name, email, is_active, created_at, created_by, last_updated_at, last_updated_by
		FROM customers WHERE customer_id = $1;
	`
	var c domain.Customer
	err := r.Pool.QueryRow(ctx, query, customerID).Scan(
		&c.CustomerID, &c.Name, &c.Email, &c.IsActive,
		&c.CreatedAt, &c.CreatedBy, &c.LastUpdatedAt, &c.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find customer "+customerID, err)
	}
	return &c, nil
}

// SaveVendor implements portsrepo.VendorRepository.
func (r *PgxPartyRepository) SaveVendor(ctx context.Context, vendor domain.Vendor) error {
	query := `
		INSERT INTO vendors (vendor_id, name, email, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		vendor.VendorID,
		vendor.Name,
		vendor.Email,
		vendor.IsActive,
		vendor.CreatedAt,
		vendor.CreatedBy,
		vendor.LastUpdatedAt,
		vendor.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert vendor "+vendor.VendorID, err)
	}
	return nil
}

// FindVendorByID implements portsrepo.VendorRepository.
func (r *PgxPartyRepository) FindVendorByID(ctx context.Context, vendorID string) (*domain.Vendor, error) {
	query := `
		SELECT vendor_id, name, email, is_active, created_at, created_by, last_updated_at, last_updated_by
		FROM vendors WHERE vendor_id = $1;
	`
	var v domain.Vendor
	err := r.Pool.QueryRow(ctx, query, vendorID).Scan(
		&v.VendorID, &v.Name, &v.Email, &v.IsActive,
		&v.CreatedAt, &v.CreatedBy, &v.LastUpdatedAt, &v.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find vendor "+vendorID, err)
	}
	return &v, nil
}
