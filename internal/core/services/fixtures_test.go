package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/agrodesk/genfin_backend/internal/coordinator"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	portssvc "github.com/agrodesk/genfin_backend/internal/core/ports/services"
	"github.com/agrodesk/genfin_backend/internal/core/services"
	"github.com/agrodesk/genfin_backend/internal/dto"
	"github.com/agrodesk/genfin_backend/internal/repositories/memory"
)

const testActor = "tester"

// engineEnv wires every engine against the in-memory store and the in-process
// coordinator, with a minimal chart of accounts.
type engineEnv struct {
	store       *memory.Store
	coord       *coordinator.LockCoordinator
	ledger      portssvc.LedgerSvcFacade
	sequence    portssvc.SequenceSvcFacade
	receivables portssvc.ReceivablesSvcFacade
	payables    portssvc.PayablesSvcFacade
	banking     portssvc.BankingSvcFacade

	receivableID   string
	incomeID       string
	cashID         string
	custCreditID   string
	payableID      string
	expenseID      string
	vendorCreditID string
}

func newEngineEnv(t *testing.T) *engineEnv {
	t.Helper()

	store := memory.NewStore()
	coord := coordinator.NewLockCoordinator(5 * time.Second)
	ledger := services.NewLedgerService(store, store, coord, nil)
	sequence := services.NewSequenceService(store)

	env := &engineEnv{
		store:    store,
		coord:    coord,
		ledger:   ledger,
		sequence: sequence,
	}

	env.receivableID = env.createAccount(t, "Accounts Receivable", domain.Asset)
	env.incomeID = env.createAccount(t, "Sales Revenue", domain.Income)
	env.cashID = env.createAccount(t, "Cash", domain.Asset)
	env.custCreditID = env.createAccount(t, "Customer Credits", domain.Liability)
	env.payableID = env.createAccount(t, "Accounts Payable", domain.Liability)
	env.expenseID = env.createAccount(t, "Operating Expenses", domain.Expense)
	env.vendorCreditID = env.createAccount(t, "Vendor Credits", domain.Asset)

	env.receivables = services.NewReceivablesService(
		store, store, store, ledger, sequence, coord, nil,
		services.ReceivablesConfig{
			ReceivableAccountID:      env.receivableID,
			IncomeAccountID:          env.incomeID,
			CashAccountID:            env.cashID,
			CreditLiabilityAccountID: env.custCreditID,
		},
	)
	env.payables = services.NewPayablesService(
		store, store, store, store, ledger, sequence, coord, nil,
		services.PayablesConfig{
			PayableAccountID:     env.payableID,
			ExpenseAccountID:     env.expenseID,
			CashAccountID:        env.cashID,
			CreditAssetAccountID: env.vendorCreditID,
		},
	)
	env.banking = services.NewBankingService(
		store, store, store, store, store, ledger, sequence, coord, nil,
		services.BankingConfig{DefaultExpenseAccountID: env.expenseID},
	)
	return env
}

func (e *engineEnv) createAccount(t *testing.T, name string, accountType domain.AccountType) string {
	t.Helper()
	account, err := e.ledger.CreateAccount(context.Background(), dto.CreateAccountRequest{
		Name:        name,
		AccountType: accountType,
	}, testActor)
	require.NoError(t, err)
	return account.AccountID
}

// fund posts a deposit into an asset account so balance gates pass.
func (e *engineEnv) fund(t *testing.T, assetAccountID string, amount decimal.Decimal) {
	t.Helper()
	_, err := e.ledger.Post(context.Background(), domain.EntryDraft{
		Description: "Test funding deposit",
		SourceType:  domain.SourceManual,
		Postings: []domain.PostingDraft{
			{AccountID: assetAccountID, Amount: amount, Side: domain.Debit},
			{AccountID: e.incomeID, Amount: amount, Side: domain.Credit},
		},
	}, testActor)
	require.NoError(t, err)
}

func (e *engineEnv) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	balance, err := e.ledger.BalanceOf(context.Background(), accountID, nil)
	require.NoError(t, err)
	return balance
}

func (e *engineEnv) newCustomer(t *testing.T) *domain.Customer {
	t.Helper()
	customer, err := e.receivables.CreateCustomer(context.Background(), dto.CreateCustomerRequest{Name: "Acme Industries"}, testActor)
	require.NoError(t, err)
	return customer
}

func (e *engineEnv) newVendor(t *testing.T) *domain.Vendor {
	t.Helper()
	vendor, err := e.payables.CreateVendor(context.Background(), dto.CreateVendorRequest{Name: "Office Supply Co"}, testActor)
	require.NoError(t, err)
	return vendor
}

// newSentInvoice creates and sends an invoice for the given total.
func (e *engineEnv) newSentInvoice(t *testing.T, customerID string, total int64) *domain.Invoice {
	t.Helper()
	invoice, err := e.receivables.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		CustomerID: customerID,
		Lines: []dto.LineItemRequest{
			{Description: "Services rendered", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(total)},
		},
	}, testActor)
	require.NoError(t, err)

	invoice, err = e.receivables.SendInvoice(context.Background(), invoice.InvoiceID, testActor)
	require.NoError(t, err)
	return invoice
}

// newSentBill creates and sends a bill for the given total.
func (e *engineEnv) newSentBill(t *testing.T, vendorID string, total int64) *domain.Bill {
	t.Helper()
	bill, err := e.payables.CreateBill(context.Background(), dto.CreateBillRequest{
		VendorID: vendorID,
		Lines: []dto.LineItemRequest{
			{Description: "Supplies", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(total)},
		},
	}, testActor)
	require.NoError(t, err)

	bill, err = e.payables.SendBill(context.Background(), bill.BillID, testActor)
	require.NoError(t, err)
	return bill
}

// newBankAccount wraps a fresh asset account, funds it, and seeds the check
// sequence at firstCheckNumber.
func (e *engineEnv) newBankAccount(t *testing.T, funds int64, firstCheckNumber int64, achEnabled bool) *domain.BankAccount {
	t.Helper()
	ledgerAccountID := e.createAccount(t, "Checking", domain.Asset)
	if funds > 0 {
		e.fund(t, ledgerAccountID, decimal.NewFromInt(funds))
	}
	account, err := e.banking.CreateBankAccount(context.Background(), dto.CreateBankAccountRequest{
		Name:                 "Operating Checking",
		LedgerAccountID:      ledgerAccountID,
		AchEnabled:           achEnabled,
		CheckPrintingEnabled: true,
		NextCheckNumber:      firstCheckNumber,
	}, testActor)
	require.NoError(t, err)
	return account
}
