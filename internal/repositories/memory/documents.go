package memory

import (
	"context"
	"fmt"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
)

// SaveCustomer implements repositories.CustomerRepository.
func (s *Store) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.customers[customer.CustomerID]; exists {
		return fmt.Errorf("%w: customer %s", apperrors.ErrDuplicate, customer.CustomerID)
	}
	s.customers[customer.CustomerID] = customer
	return nil
}

// FindCustomerByID implements repositories.CustomerRepository.
func (s *Store) FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customer, ok := s.customers[customerID]
	if !ok {
		return nil, fmt.Errorf("%w: customer %s", apperrors.ErrNotFound, customerID)
	}
	return &customer, nil
}

// SaveVendor implements repositories.VendorRepository.
func (s *Store) SaveVendor(ctx context.Context, vendor domain.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.vendors[vendor.VendorID]; exists {
		return fmt.Errorf("%w: vendor %s", apperrors.ErrDuplicate, vendor.VendorID)
	}
	s.vendors[vendor.VendorID] = vendor
	return nil
}

// FindVendorByID implements repositories.VendorRepository.
func (s *Store) FindVendorByID(ctx context.Context, vendorID string) (*domain.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vendor, ok := s.vendors[vendorID]
	if !ok {
		return nil, fmt.Errorf("%w: vendor %s", apperrors.ErrNotFound, vendorID)
	}
	return &vendor, nil
}

// SaveInvoice implements repositories.InvoiceRepository.
func (s *Store) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invoices[invoice.InvoiceID]; exists {
		return fmt.Errorf("%w: invoice %s", apperrors.ErrDuplicate, invoice.InvoiceID)
	}
	invoice.Lines = cloneLines(invoice.Lines)
	s.invoices[invoice.InvoiceID] = invoice
	s.invoiceOrder = append(s.invoiceOrder, invoice.InvoiceID)
	return nil
}

// FindInvoiceByID implements repositories.InvoiceRepository.
func (s *Store) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invoice, ok := s.invoices[invoiceID]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %s", apperrors.ErrNotFound, invoiceID)
	}
	invoice.Lines = cloneLines(invoice.Lines)
	return &invoice, nil
}

// UpdateInvoice implements repositories.InvoiceRepository.
func (s *Store) UpdateInvoice(ctx context.Context, invoice domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[invoice.InvoiceID]; !ok {
		return fmt.Errorf("%w: invoice %s", apperrors.ErrNotFound, invoice.InvoiceID)
	}
	invoice.Lines = cloneLines(invoice.Lines)
	s.invoices[invoice.InvoiceID] = invoice
	return nil
}

// ListInvoicesByCustomer implements repositories.InvoiceRepository, newest
// first.
func (s *Store) ListInvoicesByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []domain.Invoice
	for i := len(s.invoiceOrder) - 1; i >= 0; i-- {
		invoice := s.invoices[s.invoiceOrder[i]]
		if invoice.CustomerID == customerID {
			invoice.Lines = cloneLines(invoice.Lines)
			matched = append(matched, invoice)
		}
	}
	return paginateInvoices(matched, limit, offset), nil
}

func paginateInvoices(all []domain.Invoice, limit, offset int) []domain.Invoice {
	if offset >= len(all) {
		return []domain.Invoice{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// SaveBill implements repositories.BillRepository.
func (s *Store) SaveBill(ctx context.Context, bill domain.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bills[bill.BillID]; exists {
		return fmt.Errorf("%w: bill %s", apperrors.ErrDuplicate, bill.BillID)
	}
	bill.Lines = cloneLines(bill.Lines)
	s.bills[bill.BillID] = bill
	s.billOrder = append(s.billOrder, bill.BillID)
	return nil
}

// FindBillByID implements repositories.BillRepository.
func (s *Store) FindBillByID(ctx context.Context, billID string) (*domain.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bill, ok := s.bills[billID]
	if !ok {
		return nil, fmt.Errorf("%w: bill %s", apperrors.ErrNotFound, billID)
	}
	bill.Lines = cloneLines(bill.Lines)
	return &bill, nil
}

// UpdateBill implements repositories.BillRepository.
func (s *Store) UpdateBill(ctx context.Context, bill domain.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bills[bill.BillID]; !ok {
		return fmt.Errorf("%w: bill %s", apperrors.ErrNotFound, bill.BillID)
	}
	bill.Lines = cloneLines(bill.Lines)
	s.bills[bill.BillID] = bill
	return nil
}

// ListBillsByVendor implements repositories.BillRepository, newest first.
func (s *Store) ListBillsByVendor(ctx context.Context, vendorID string, limit, offset int) ([]domain.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []domain.Bill
	for i := len(s.billOrder) - 1; i >= 0; i-- {
		bill := s.bills[s.billOrder[i]]
		if bill.VendorID == vendorID {
			bill.Lines = cloneLines(bill.Lines)
			matched = append(matched, bill)
		}
	}
	if offset >= len(matched) {
		return []domain.Bill{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// SaveCredit implements repositories.CreditRepository.
func (s *Store) SaveCredit(ctx context.Context, credit domain.CreditNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.credits[credit.CreditID]; exists {
		return fmt.Errorf("%w: credit %s", apperrors.ErrDuplicate, credit.CreditID)
	}
	s.credits[credit.CreditID] = credit
	return nil
}

// FindCreditByID implements repositories.CreditRepository.
func (s *Store) FindCreditByID(ctx context.Context, creditID string) (*domain.CreditNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credit, ok := s.credits[creditID]
	if !ok {
		return nil, fmt.Errorf("%w: credit %s", apperrors.ErrNotFound, creditID)
	}
	return &credit, nil
}

// UpdateCredit implements repositories.CreditRepository.
func (s *Store) UpdateCredit(ctx context.Context, credit domain.CreditNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credits[credit.CreditID]; !ok {
		return fmt.Errorf("%w: credit %s", apperrors.ErrNotFound, credit.CreditID)
	}
	s.credits[credit.CreditID] = credit
	return nil
}

// SavePurchaseOrder implements repositories.PurchaseOrderRepository.
func (s *Store) SavePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.purchaseOrders[po.PurchaseOrderID]; exists {
		return fmt.Errorf("%w: purchase order %s", apperrors.ErrDuplicate, po.PurchaseOrderID)
	}
	po.Lines = cloneLines(po.Lines)
	s.purchaseOrders[po.PurchaseOrderID] = po
	return nil
}

// FindPurchaseOrderByID implements repositories.PurchaseOrderRepository.
func (s *Store) FindPurchaseOrderByID(ctx context.Context, poID string) (*domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	po, ok := s.purchaseOrders[poID]
	if !ok {
		return nil, fmt.Errorf("%w: purchase order %s", apperrors.ErrNotFound, poID)
	}
	po.Lines = cloneLines(po.Lines)
	return &po, nil
}

// UpdatePurchaseOrder implements repositories.PurchaseOrderRepository.
func (s *Store) UpdatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.purchaseOrders[po.PurchaseOrderID]; !ok {
		return fmt.Errorf("%w: purchase order %s", apperrors.ErrNotFound, po.PurchaseOrderID)
	}
	po.Lines = cloneLines(po.Lines)
	s.purchaseOrders[po.PurchaseOrderID] = po
	return nil
}
