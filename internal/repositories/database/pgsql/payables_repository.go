package pgsql

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	portsrepo "github.com/agrodesk/genfin_backend/internal/core/ports/repositories"
)

// PgxPayablesRepository persists bills and purchase orders.
type PgxPayablesRepository struct {
	BaseRepository
}

func newPgxPayablesRepository(pool *pgxpool.Pool) *PgxPayablesRepository {
	return &PgxPayablesRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BillRepository = (*PgxPayablesRepository)(nil)
var _ portsrepo.PurchaseOrderRepository = (*PgxPayablesRepository)(nil)

const billColumns = `bill_id, bill_number, vendor_id, lines, total, balance_due, status, journal_id, purchase_order_id, created_at, created_by, last_updated_at, last_updated_by`

func scanBill(row pgx.Row) (domain.Bill, error) {
	var b domain.Bill
	var lines []byte
	err := row.Scan(
		&b.BillID,
		&b.BillNumber,
		&b.VendorID,
		&lines,
		&b.Total,
		&b.BalanceDue,
		&b.Status,
		&b.JournalID,
		&b.PurchaseOrderID,
		&b.CreatedAt,
		&b.CreatedBy,
		&b.LastUpdatedAt,
		&b.LastUpdatedBy,
	)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(lines, &b.Lines); err != nil {
		return b, err
	}
	return b, nil
}

// SaveBill implements portsrepo.BillRepository.
func (r *PgxPayablesRepository) SaveBill(ctx context.Context, bill domain.Bill) error {
	lines, err := json.Marshal(bill.Lines)
	if err != nil {
		return apperrors.NewAppError(500, "failed to marshal bill lines", err)
	}
	query := `
		INSERT INTO bills (` + billColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = r.Pool.Exec(ctx, query,
		bill.BillID,
		bill.BillNumber,
		bill.VendorID,
		lines,
		bill.Total,
		bill.BalanceDue,
		bill.Status,
		bill.JournalID,
		bill.PurchaseOrderID,
		bill.CreatedAt,
		bill.CreatedBy,
		bill.LastUpdatedAt,
		bill.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert bill "+bill.BillID, err)
	}
	return nil
}

// FindBillByID implements portsrepo.BillRepository.
func (r *PgxPayablesRepository) FindBillByID(ctx context.Context, billID string) (*domain.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE bill_id = $1;`
	bill, err := scanBill(r.Pool.QueryRow(ctx, query, billID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find bill "+billID, err)
	}
	return &bill, nil
}

// UpdateBill implements portsrepo.BillRepository.
func (r *PgxPayablesRepository) UpdateBill(ctx context.Context, bill domain.Bill) error {
	query := `
		UPDATE bills
		SET balance_due = $2, status = $3, journal_id = $4, last_updated_at = $5, last_updated_by = $6
		WHERE bill_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		bill.BillID,
		bill.BalanceDue,
		bill.Status,
		bill.JournalID,
		bill.LastUpdatedAt,
		bill.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update bill "+bill.BillID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListBillsByVendor implements portsrepo.BillRepository, newest first.
func (r *PgxPayablesRepository) ListBillsByVendor(ctx context.Context, vendorID string, limit, offset int) ([]domain.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE vendor_id = $1
		ORDER BY bill_number DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, vendorID, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list bills for vendor "+vendorID, err)
	}
	defer rows.Close()

	bills := make([]domain.Bill, 0, limit)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan bill row", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading bill rows", err)
	}
	return bills, nil
}

// SavePurchaseOrder implements portsrepo.PurchaseOrderRepository.
func (r *PgxPayablesRepository) SavePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	lines, err := json.Marshal(po.Lines)
	if err != nil {
		return apperrors.NewAppError(500, "failed to marshal purchase order lines", err)
	}
	query := `
		INSERT INTO purchase_orders (purchase_order_id, vendor_id, lines, total, status, bill_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = r.Pool.Exec(ctx, query,
		po.PurchaseOrderID,
		po.VendorID,
		lines,
		po.Total,
		po.Status,
		po.BillID,
		po.CreatedAt,
		po.CreatedBy,
		po.LastUpdatedAt,
		po.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert purchase order "+po.PurchaseOrderID, err)
	}
	return nil
}

// FindPurchaseOrderByID implements portsrepo.PurchaseOrderRepository.
func (r *PgxPayablesRepository) FindPurchaseOrderByID(ctx context.Context, poID string) (*domain.PurchaseOrder, error) {
	query := `
		SELECT purchase_order_id, vendor_id, lines, total, status, bill_id, created_at, created_by, last_updated_at, last_updated_by
		FROM purchase_orders WHERE purchase_order_id = $1;
	`
	var po domain.PurchaseOrder
	var lines []byte
	err := r.Pool.QueryRow(ctx, query, poID).Scan(
		&po.PurchaseOrderID, &po.VendorID, &lines, &po.Total, &po.Status, &po.BillID,
		&po.CreatedAt, &po.CreatedBy, &po.LastUpdatedAt, &po.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find purchase order "+poID, err)
	}
	if err := json.Unmarshal(lines, &po.Lines); err != nil {
		return nil, apperrors.NewAppError(500, "failed to unmarshal purchase order lines", err)
	}
	return &po, nil
}

// UpdatePurchaseOrder implements portsrepo.PurchaseOrderRepository.
func (r *PgxPayablesRepository) UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders
		SET status = $2, bill_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE purchase_order_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		po.PurchaseOrderID,
		po.Status,
		po.BillID,
		po.LastUpdatedAt,
		po.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update purchase order "+po.PurchaseOrderID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
