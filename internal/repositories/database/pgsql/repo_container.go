package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/agrodesk/genfin_backend/internal/core/ports/repositories"
)

// RepositoryContainer bundles every pgsql-backed repository behind the
// repository ports.
type RepositoryContainer struct {
	Account        portsrepo.AccountRepositoryFacade
	Journal        portsrepo.JournalRepositoryFacade
	Sequence       portsrepo.SequenceRepository
	Customer       portsrepo.CustomerRepository
	Vendor         portsrepo.VendorRepository
	Invoice        portsrepo.InvoiceRepository
	Credit         portsrepo.CreditRepository
	Bill           portsrepo.BillRepository
	PurchaseOrder  portsrepo.PurchaseOrderRepository
	BankAccount    portsrepo.BankAccountRepository
	Check          portsrepo.CheckRepository
	Reconciliation portsrepo.ReconciliationRepository
	AchBatch       portsrepo.AchBatchRepository
}

// NewRepositoryContainer wires all pgsql repositories onto one pool.
func NewRepositoryContainer(pool *pgxpool.Pool) *RepositoryContainer {
	accountRepo := newPgxAccountRepository(pool)
	journalRepo := newPgxJournalRepository(pool, accountRepo)
	sequenceRepo := newPgxSequenceRepository(pool)
	partyRepo := newPgxPartyRepository(pool)
	receivablesRepo := newPgxReceivablesRepository(pool)
	payablesRepo := newPgxPayablesRepository(pool)
	bankingRepo := newPgxBankingRepository(pool)

	return &RepositoryContainer{
		Account:        accountRepo,
		Journal:        journalRepo,
		Sequence:       sequenceRepo,
		Customer:       partyRepo,
		Vendor:         partyRepo,
		Invoice:        receivablesRepo,
		Credit:         receivablesRepo,
		Bill:           payablesRepo,
		PurchaseOrder:  payablesRepo,
		BankAccount:    bankingRepo,
		Check:          bankingRepo,
		Reconciliation: bankingRepo,
		AchBatch:       bankingRepo,
	}
}
