// Package memory is an in-process repository backend. It implements every
// repository port behind one mutex-guarded store and is used when no database
// is configured and by the engine tests.
package memory

import (
	"sync"

	"github.com/agrodesk/genfin_backend/internal/core/domain"
)

// Store holds all entities in maps guarded by a single RWMutex. Insertion
// order slices preserve chronology for listings and posting sums.
type Store struct {
	mu sync.RWMutex

	accounts     map[string]domain.Account
	accountOrder []string

	journals     map[string]domain.JournalEntry
	postings     map[string]domain.Posting
	postingOrder []string

	sequences map[string]domain.Sequence

	customers map[string]domain.Customer
	vendors   map[string]domain.Vendor

	invoices     map[string]domain.Invoice
	invoiceOrder []string
	bills        map[string]domain.Bill
	billOrder    []string
	credits      map[string]domain.CreditNote

	purchaseOrders map[string]domain.PurchaseOrder

	bankAccounts    map[string]domain.BankAccount
	checks          map[string]domain.Check
	checkOrder      []string
	reconciliations map[string]domain.Reconciliation
	achBatches      map[string]domain.AchBatch
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:        make(map[string]domain.Account),
		journals:        make(map[string]domain.JournalEntry),
		postings:        make(map[string]domain.Posting),
		sequences:       make(map[string]domain.Sequence),
		customers:       make(map[string]domain.Customer),
		vendors:         make(map[string]domain.Vendor),
		invoices:        make(map[string]domain.Invoice),
		bills:           make(map[string]domain.Bill),
		credits:         make(map[string]domain.CreditNote),
		purchaseOrders:  make(map[string]domain.PurchaseOrder),
		bankAccounts:    make(map[string]domain.BankAccount),
		checks:          make(map[string]domain.Check),
		reconciliations: make(map[string]domain.Reconciliation),
		achBatches:      make(map[string]domain.AchBatch),
	}
}

func cloneLines(lines []domain.LineItem) []domain.LineItem {
	if lines == nil {
		return nil
	}
	out := make([]domain.LineItem, len(lines))
	copy(out, lines)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
