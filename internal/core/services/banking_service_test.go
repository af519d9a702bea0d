package services_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/agrodesk/genfin_backend/internal/dto"
)

func TestCreateBankAccountRequiresAsset(t *testing.T) {
	env := newEngineEnv(t)

	_, err := env.banking.CreateBankAccount(context.Background(), dto.CreateBankAccountRequest{
		Name:            "Bogus",
		LedgerAccountID: env.payableID, // LIABILITY
		NextCheckNumber: 1,
	}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestWriteCheck(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	account := env.newBankAccount(t, 1000, 501, false)

	check, err := env.banking.WriteCheck(ctx, dto.WriteCheckRequest{
		BankAccountID: account.BankAccountID,
		Payee:         "Electric Utility",
		Amount:        decimal.NewFromInt(250),
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, int64(501), check.CheckNumber)
	assert.Equal(t, domain.CheckIssued, check.Status)
	require.NotNil(t, check.JournalID)

	assert.True(t, decimal.NewFromInt(750).Equal(env.balance(t, account.LedgerAccountID)))
	assert.True(t, decimal.NewFromInt(250).Equal(env.balance(t, env.expenseID)))

	second, err := env.banking.WriteCheck(ctx, dto.WriteCheckRequest{
		BankAccountID: account.BankAccountID,
		Payee:         "Landlord",
		Amount:        decimal.NewFromInt(100),
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, int64(502), second.CheckNumber)
}

func TestWriteCheckInsufficientFundsBurnsNoNumber(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	account := env.newBankAccount(t, 100, 1, false)

	_, err := env.banking.WriteCheck(ctx, dto.WriteCheckRequest{
		BankAccountID: account.BankAccountID,
		Payee:         "Big Vendor",
		Amount:        decimal.NewFromInt(500),
	}, testActor)
	require.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	// The rejected write consumed nothing: the next check still gets 1.
	peek, err := env.sequence.Peek(ctx, account.CheckSequenceScope())
	require.NoError(t, err)
	assert.Equal(t, int64(1), peek)

	check, err := env.banking.WriteCheck(ctx, dto.WriteCheckRequest{
		BankAccountID: account.BankAccountID,
		Payee:         "Small Vendor",
		Amount:        decimal.NewFromInt(50),
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, int64(1), check.CheckNumber)
}

func TestWriteCheckPrintingDisabled(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	ledgerAccountID := env.createAccount(t, "Savings", domain.Asset)
	env.fund(t, ledgerAccountID, decimal.NewFromInt(1000))
	account, err := env.banking.CreateBankAccount(ctx, dto.CreateBankAccountRequest{
		Name:            "No-Check Savings",
		LedgerAccountID: ledgerAccountID,
		NextCheckNumber: 1,
	}, testActor)
	require.NoError(t, err)

	_, err = env.banking.WriteCheck(ctx, dto.WriteCheckRequest{
		BankAccountID: account.BankAccountID,
		Payee:         "Anyone",
		Amount:        decimal.NewFromInt(100),
	}, testActor)
	require.ErrorIs(t, err, apperrors.ErrCheckPrintingDisabled)

	// The rejection consumes no number and posts nothing.
	peek, err := env.sequence.Peek(ctx, account.CheckSequenceScope())
	require.NoError(t, err)
	assert.Equal(t, int64(1), peek)
	assert.True(t, decimal.NewFromInt(1000).Equal(env.balance(t, ledgerAccountID)))
}

func TestConcurrentWriteChecksAreGapless(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	account := env.newBankAccount(t, 100000, 100, false)

	const n = 25
	checks := make([]*domain.Check, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			checks[slot], errs[slot] = env.banking.WriteCheck(ctx, dto.WriteCheckRequest{
				BankAccountID: account.BankAccountID,
				Payee:         "Concurrent Payee",
				Amount:        decimal.NewFromInt(10),
			}, testActor)
		}(i)
	}
	wg.Wait()

	numbers := make([]int64, n)
	for i, c := range checks {
		require.NoError(t, errs[i])
		numbers[i] = c.CheckNumber
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	for i, num := range numbers {
		assert.Equal(t, int64(100+i), num, "check numbers must be unique and contiguous")
	}

	assert.True(t, decimal.NewFromInt(100000-n*10).Equal(env.balance(t, account.LedgerAccountID)))
}

func TestCheckStateMachine(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	account := env.newBankAccount(t, 1000, 1, false)

	check, err := env.banking.WriteCheck(ctx, dto.WriteCheckRequest{
		BankAccountID: account.BankAccountID,
		Payee:         "Payee",
		Amount:        decimal.NewFromInt(100),
	}, testActor)
	require.NoError(t, err)

	check, err = env.banking.PrintCheck(ctx, check.CheckID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckPrinted, check.Status)

	// Printing twice is invalid.
	_, err = env.banking.PrintCheck(ctx, check.CheckID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)

	check, err = env.banking.ClearCheck(ctx, check.CheckID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckCleared, check.Status)

	// Cleared is terminal: no void, no re-clear.
	_, err = env.banking.VoidCheck(ctx, check.CheckID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrCannotVoidClearedCheck)
	_, err = env.banking.ClearCheck(ctx, check.CheckID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestVoidCheckReversesAndKeepsNumberConsumed(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	account := env.newBankAccount(t, 1000, 1, false)

	check, err := env.banking.WriteCheck(ctx, dto.WriteCheckRequest{
		BankAccountID: account.BankAccountID,
		Payee:         "Payee",
		Amount:        decimal.NewFromInt(300),
	}, testActor)
	require.NoError(t, err)

	voided, err := env.banking.VoidCheck(ctx, check.CheckID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckVoided, voided.Status)

	// Funds restored.
	assert.True(t, decimal.NewFromInt(1000).Equal(env.balance(t, account.LedgerAccountID)))

	// The voided number stays consumed.
	next, err := env.banking.WriteCheck(ctx, dto.WriteCheckRequest{
		BankAccountID: account.BankAccountID,
		Payee:         "Payee",
		Amount:        decimal.NewFromInt(10),
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.CheckNumber)
}

func TestTransfer(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	savingsID := env.createAccount(t, "Savings", domain.Asset)
	env.fund(t, env.cashID, decimal.NewFromInt(500))

	entry, err := env.banking.Transfer(ctx, dto.TransferRequest{
		FromAccountID: env.cashID,
		ToAccountID:   savingsID,
		Amount:        decimal.NewFromInt(200),
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceTransfer, entry.SourceType)

	assert.True(t, decimal.NewFromInt(300).Equal(env.balance(t, env.cashID)))
	assert.True(t, decimal.NewFromInt(200).Equal(env.balance(t, savingsID)))
}

func TestTransferRejections(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	savingsID := env.createAccount(t, "Savings", domain.Asset)
	env.fund(t, env.cashID, decimal.NewFromInt(100))

	_, err := env.banking.Transfer(ctx, dto.TransferRequest{
		FromAccountID: env.cashID,
		ToAccountID:   savingsID,
		Amount:        decimal.NewFromInt(101),
	}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	_, err = env.banking.Transfer(ctx, dto.TransferRequest{
		FromAccountID: env.cashID,
		ToAccountID:   env.cashID,
		Amount:        decimal.NewFromInt(10),
	}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = env.banking.Transfer(ctx, dto.TransferRequest{
		FromAccountID: env.cashID,
		ToAccountID:   savingsID,
		Amount:        decimal.Zero,
	}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestReconciliationCompletes(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	account := env.newBankAccount(t, 1000, 1, false)

	_, err := env.banking.WriteCheck(ctx, dto.WriteCheckRequest{
		BankAccountID: account.BankAccountID,
		Payee:         "Payee",
		Amount:        decimal.NewFromInt(400),
	}, testActor)
	require.NoError(t, err)

	// Statement shows the deposit and the check: 1000 - 400.
	rec, err := env.banking.StartReconciliation(ctx, account.BankAccountID, decimal.NewFromInt(600), testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconciliationInProgress, rec.Status)

	postingIDs := env.bankPostingIDs(t, account.LedgerAccountID)
	require.NoError(t, env.banking.MarkCleared(ctx, rec.ReconciliationID, postingIDs, testActor))

	// MarkCleared is idempotent.
	require.NoError(t, env.banking.MarkCleared(ctx, rec.ReconciliationID, postingIDs, testActor))

	rec, err = env.banking.CompleteReconciliation(ctx, rec.ReconciliationID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconciliationCompleted, rec.Status)
	assert.True(t, decimal.NewFromInt(600).Equal(rec.ComputedBalance), "got %s", rec.ComputedBalance)
	assert.True(t, rec.Difference.IsZero())

	// Completing twice is invalid.
	_, err = env.banking.CompleteReconciliation(ctx, rec.ReconciliationID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestReconciliationDiscrepancy(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	account := env.newBankAccount(t, 1000, 1, false)

	// Statement off by a cent: recorded as a discrepancy, not an error.
	statement := decimal.NewFromInt(1000).Add(decimal.NewFromFloat(0.01))
	rec, err := env.banking.StartReconciliation(ctx, account.BankAccountID, statement, testActor)
	require.NoError(t, err)

	postingIDs := env.bankPostingIDs(t, account.LedgerAccountID)
	require.NoError(t, env.banking.MarkCleared(ctx, rec.ReconciliationID, postingIDs, testActor))

	rec, err = env.banking.CompleteReconciliation(ctx, rec.ReconciliationID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconciliationDiscrepancy, rec.Status)
	assert.True(t, decimal.NewFromFloat(0.01).Equal(rec.Difference), "got %s", rec.Difference)
}

func TestReconciliationOnlyOneActive(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	account := env.newBankAccount(t, 100, 1, false)

	_, err := env.banking.StartReconciliation(ctx, account.BankAccountID, decimal.NewFromInt(100), testActor)
	require.NoError(t, err)

	_, err = env.banking.StartReconciliation(ctx, account.BankAccountID, decimal.NewFromInt(100), testActor)
	assert.ErrorIs(t, err, apperrors.ErrReconciliationAlreadyActive)
}

func TestMarkClearedRejectsForeignPostings(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	account := env.newBankAccount(t, 100, 1, false)

	// A posting against the income account, not the bank's ledger account.
	entry, err := env.ledger.Post(ctx, domain.EntryDraft{
		Description: "Unrelated",
		SourceType:  domain.SourceManual,
		Postings: []domain.PostingDraft{
			{AccountID: env.cashID, Amount: decimal.NewFromInt(10), Side: domain.Debit},
			{AccountID: env.incomeID, Amount: decimal.NewFromInt(10), Side: domain.Credit},
		},
	}, testActor)
	require.NoError(t, err)

	rec, err := env.banking.StartReconciliation(ctx, account.BankAccountID, decimal.NewFromInt(100), testActor)
	require.NoError(t, err)

	err = env.banking.MarkCleared(ctx, rec.ReconciliationID, []string{entry.Postings[0].PostingID}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = env.banking.MarkCleared(ctx, rec.ReconciliationID, []string{"no-such-posting"}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateAchBatch(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	account := env.newBankAccount(t, 1000, 1, true)

	batch, err := env.banking.CreateAchBatch(ctx, dto.CreateAchBatchRequest{
		BankAccountID: account.BankAccountID,
		Items: []dto.AchItemRequest{
			{Payee: "Payroll A", RoutingNumber: "021000021", AccountNumber: "12345", Amount: decimal.NewFromInt(300)},
			{Payee: "Payroll B", RoutingNumber: "021000021", AccountNumber: "67890", Amount: decimal.NewFromInt(200)},
		},
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.AchSubmitted, batch.Status)
	assert.True(t, decimal.NewFromInt(500).Equal(batch.Total))
	require.NotNil(t, batch.JournalID)

	assert.True(t, decimal.NewFromInt(500).Equal(env.balance(t, account.LedgerAccountID)))
}

func TestCreateAchBatchRejections(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	t.Run("ach disabled", func(t *testing.T) {
		account := env.newBankAccount(t, 1000, 1, false)
		_, err := env.banking.CreateAchBatch(ctx, dto.CreateAchBatchRequest{
			BankAccountID: account.BankAccountID,
			Items:         []dto.AchItemRequest{{Payee: "P", RoutingNumber: "r", AccountNumber: "a", Amount: decimal.NewFromInt(10)}},
		}, testActor)
		assert.ErrorIs(t, err, apperrors.ErrAchNotEnabled)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		account := env.newBankAccount(t, 100, 1, true)
		_, err := env.banking.CreateAchBatch(ctx, dto.CreateAchBatchRequest{
			BankAccountID: account.BankAccountID,
			Items:         []dto.AchItemRequest{{Payee: "P", RoutingNumber: "r", AccountNumber: "a", Amount: decimal.NewFromInt(500)}},
		}, testActor)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
	})

	t.Run("non-positive item", func(t *testing.T) {
		account := env.newBankAccount(t, 100, 1, true)
		_, err := env.banking.CreateAchBatch(ctx, dto.CreateAchBatchRequest{
			BankAccountID: account.BankAccountID,
			Items:         []dto.AchItemRequest{{Payee: "P", RoutingNumber: "r", AccountNumber: "a", Amount: decimal.Zero}},
		}, testActor)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

// bankPostingIDs collects every posting against the bank's ledger account.
func (e *engineEnv) bankPostingIDs(t *testing.T, ledgerAccountID string) []string {
	t.Helper()
	postings, err := e.store.ListPostingsByAccountID(context.Background(), ledgerAccountID)
	require.NoError(t, err)
	ids := make([]string, 0, len(postings))
	for _, p := range postings {
		ids = append(ids, p.PostingID)
	}
	return ids
}
