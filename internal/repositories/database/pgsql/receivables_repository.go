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

// PgxReceivablesRepository persists invoices and credits. Line items are
// stored as a JSONB column; they are immutable once the document exists.
type PgxReceivablesRepository struct {
	BaseRepository
}

func newPgxReceivablesRepository(pool *pgxpool.Pool) *PgxReceivablesRepository {
	return &PgxReceivablesRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InvoiceRepository = (*PgxReceivablesRepository)(nil)
var _ portsrepo.CreditRepository = (*PgxReceivablesRepository)(nil)

const invoiceColumns = `invoice_id, invoice_number, customer_id, lines, total, balance_due, status, journal_id, created_at, created_by, last_updated_at, last_updated_by`

func scanInvoice(row pgx.Row) (domain.Invoice, error) {
	var inv domain.Invoice
	var lines []byte
	err := row.Scan(
		&inv.InvoiceID,
		&inv.InvoiceNumber,
		&inv.CustomerID,
		&lines,
		&inv.Total,
		&inv.BalanceDue,
		&inv.Status,
		&inv.JournalID,
		&inv.CreatedAt,
		&inv.CreatedBy,
		&inv.LastUpdatedAt,
		&inv.LastUpdatedBy,
	)
	if err != nil {
		return inv, err
	}
	if err := json.Unmarshal(lines, &inv.Lines); err != nil {
		return inv, err
	}
	return inv, nil
}

// SaveInvoice implements portsrepo.InvoiceRepository.
func (r *PgxReceivablesRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	lines, err := json.Marshal(invoice.Lines)
	if err != nil {
		return apperrors.NewAppError(500, "failed to marshal invoice lines", err)
	}
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = r.Pool.Exec(ctx, query,
		invoice.InvoiceID,
		invoice.InvoiceNumber,
		invoice.CustomerID,
		lines,
		invoice.Total,
		invoice.BalanceDue,
		invoice.Status,
		invoice.JournalID,
		invoice.CreatedAt,
		invoice.CreatedBy,
		invoice.LastUpdatedAt,
		invoice.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert invoice "+invoice.InvoiceID, err)
	}
	return nil
}

// FindInvoiceByID implements portsrepo.InvoiceRepository.
func (r *PgxReceivablesRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = $1;`
	invoice, err := scanInvoice(r.Pool.QueryRow(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find invoice "+invoiceID, err)
	}
	return &invoice, nil
}

// UpdateInvoice implements portsrepo.InvoiceRepository.
func (r *PgxReceivablesRepository) UpdateInvoice(ctx context.Context, invoice domain.Invoice) error {
	query := `
		UPDATE invoices
		SET balance_due = $2, status = $3, journal_id = $4, last_updated_at = $5, last_updated_by = $6
		WHERE invoice_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		invoice.InvoiceID,
		invoice.BalanceDue,
		invoice.Status,
		invoice.JournalID,
		invoice.LastUpdatedAt,
		invoice.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update invoice "+invoice.InvoiceID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListInvoicesByCustomer implements portsrepo.InvoiceRepository, newest
// first.
func (r *PgxReceivablesRepository) ListInvoicesByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE customer_id = $1
		ORDER BY invoice_number DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list invoices for customer "+customerID, err)
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0, limit)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan invoice row", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading invoice rows", err)
	}
	return invoices, nil
}

// SaveCredit implements portsrepo.CreditRepository.
func (r *PgxReceivablesRepository) SaveCredit(ctx context.Context, credit domain.CreditNote) error {
	query := `
		INSERT INTO credits (credit_id, owner_type, owner_id, original_amount, remaining_balance, journal_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		credit.CreditID,
		credit.OwnerType,
		credit.OwnerID,
		credit.OriginalAmount,
		credit.RemainingBalance,
		credit.JournalID,
		credit.CreatedAt,
		credit.CreatedBy,
		credit.LastUpdatedAt,
		credit.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert credit "+credit.CreditID, err)
	}
	return nil
}

// FindCreditByID implements portsrepo.CreditRepository.
func (r *PgxReceivablesRepository) FindCreditByID(ctx context.Context, creditID string) (*domain.CreditNote, error) {
	query := `
		SELECT credit_id, owner_type, owner_id, original_amount, remaining_balance, journal_id, created_at, created_by, last_updated_at, last_updated_by
		FROM credits WHERE credit_id = $1;
	`
	var c domain.CreditNote
	err := r.Pool.QueryRow(ctx, query, creditID).Scan(
		&c.CreditID, &c.OwnerType, &c.OwnerID, &c.OriginalAmount, &c.RemainingBalance, &c.JournalID,
		&c.CreatedAt, &c.CreatedBy, &c.LastUpdatedAt, &c.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find credit "+creditID, err)
	}
	return &c, nil
}

// UpdateCredit implements portsrepo.CreditRepository.
func (r *PgxReceivablesRepository) UpdateCredit(ctx context.Context, credit domain.CreditNote) error {
	query := `
		UPDATE credits
		SET remaining_balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE credit_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		credit.CreditID,
		credit.RemainingBalance,
		credit.LastUpdatedAt,
		credit.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update credit "+credit.CreditID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
