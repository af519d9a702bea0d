package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/agrodesk/genfin_backend/internal/dto"
)

func TestInvoiceLifecycle(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	customer := env.newCustomer(t)

	invoice, err := env.receivables.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		CustomerID: customer.CustomerID,
		Lines: []dto.LineItemRequest{
			{Description: "Consulting", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(200)},
			{Description: "Travel", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(200)},
		},
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceDraft, invoice.Status)
	assert.Equal(t, int64(1), invoice.InvoiceNumber)
	assert.True(t, decimal.NewFromInt(1000).Equal(invoice.Total))
	assert.True(t, invoice.BalanceDue.Equal(invoice.Total))
	assert.Nil(t, invoice.JournalID)

	// Drafts have no ledger effect.
	assert.True(t, env.balance(t, env.receivableID).IsZero())

	invoice, err = env.receivables.SendInvoice(ctx, invoice.InvoiceID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceSent, invoice.Status)
	require.NotNil(t, invoice.JournalID)

	assert.True(t, decimal.NewFromInt(1000).Equal(env.balance(t, env.receivableID)))
	assert.True(t, decimal.NewFromInt(1000).Equal(env.balance(t, env.incomeID)))

	// Sending twice is an invalid transition.
	_, err = env.receivables.SendInvoice(ctx, invoice.InvoiceID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)

	// Invoice numbers keep counting up.
	second, err := env.receivables.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		CustomerID: customer.CustomerID,
		Lines:      []dto.LineItemRequest{{Description: "More work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)}},
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.InvoiceNumber)
}

func TestApplyPaymentTransitions(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	customer := env.newCustomer(t)
	invoice := env.newSentInvoice(t, customer.CustomerID, 1000)

	invoice, err := env.receivables.ApplyPayment(ctx, invoice.InvoiceID, decimal.NewFromInt(400), testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePartial, invoice.Status)
	assert.True(t, decimal.NewFromInt(600).Equal(invoice.BalanceDue))

	invoice, err = env.receivables.ApplyPayment(ctx, invoice.InvoiceID, decimal.NewFromInt(600), testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, invoice.Status)
	assert.True(t, invoice.BalanceDue.IsZero())

	// Receivable fully relieved, cash collected.
	assert.True(t, env.balance(t, env.receivableID).IsZero())
	assert.True(t, decimal.NewFromInt(1000).Equal(env.balance(t, env.cashID)))

	// A paid invoice accepts no further payments.
	_, err = env.receivables.ApplyPayment(ctx, invoice.InvoiceID, decimal.NewFromInt(1), testActor)
	assert.ErrorIs(t, err, apperrors.ErrPaymentExceedsBalance)
}

func TestApplyPaymentRejections(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	customer := env.newCustomer(t)

	draft, err := env.receivables.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		CustomerID: customer.CustomerID,
		Lines:      []dto.LineItemRequest{{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)}},
	}, testActor)
	require.NoError(t, err)

	_, err = env.receivables.ApplyPayment(ctx, draft.InvoiceID, decimal.NewFromInt(50), testActor)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition, "drafts cannot be paid")

	sent := env.newSentInvoice(t, customer.CustomerID, 100)
	_, err = env.receivables.ApplyPayment(ctx, sent.InvoiceID, decimal.NewFromInt(101), testActor)
	assert.ErrorIs(t, err, apperrors.ErrPaymentExceedsBalance)

	_, err = env.receivables.ApplyPayment(ctx, sent.InvoiceID, decimal.Zero, testActor)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = env.receivables.ApplyPayment(ctx, sent.InvoiceID, decimal.NewFromInt(-5), testActor)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRacingPaymentsNeverOverpay(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	customer := env.newCustomer(t)
	invoice := env.newSentInvoice(t, customer.CustomerID, 1000)

	// Ten racing payments of 300 against a 1000 balance: at most three can
	// land, the rest must lose with ErrPaymentExceedsBalance.
	const racers = 10
	payment := decimal.NewFromInt(300)

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = env.receivables.ApplyPayment(ctx, invoice.InvoiceID, payment, testActor)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, apperrors.ErrPaymentExceedsBalance), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 3, succeeded)

	final, err := env.receivables.GetInvoiceByID(ctx, invoice.InvoiceID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(final.BalanceDue), "got %s", final.BalanceDue)
	assert.Equal(t, domain.InvoicePartial, final.Status)

	// Cash reflects exactly the payments that landed.
	assert.True(t, decimal.NewFromInt(900).Equal(env.balance(t, env.cashID)))
}

func TestCreditMemoAndApplication(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	customer := env.newCustomer(t)
	invoice := env.newSentInvoice(t, customer.CustomerID, 1000)

	credit, err := env.receivables.IssueCreditMemo(ctx, customer.CustomerID, decimal.NewFromInt(600), testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerCredit, credit.OwnerType)
	assert.True(t, decimal.NewFromInt(600).Equal(credit.RemainingBalance))
	assert.True(t, decimal.NewFromInt(600).Equal(env.balance(t, env.custCreditID)))

	_, err = env.receivables.ApplyPayment(ctx, invoice.InvoiceID, decimal.NewFromInt(400), testActor)
	require.NoError(t, err)

	credit, invoice, err = env.receivables.ApplyCredit(ctx, credit.CreditID, invoice.InvoiceID, decimal.NewFromInt(600), testActor)
	require.NoError(t, err)
	assert.True(t, credit.RemainingBalance.IsZero())
	assert.True(t, invoice.BalanceDue.IsZero())
	assert.Equal(t, domain.InvoicePaid, invoice.Status)

	// Credit liability relieved, receivable fully collected.
	assert.True(t, env.balance(t, env.custCreditID).IsZero())
	assert.True(t, env.balance(t, env.receivableID).IsZero())
}

func TestApplyCreditRejections(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	customer := env.newCustomer(t)
	other := env.newCustomer(t)
	invoice := env.newSentInvoice(t, customer.CustomerID, 100)

	t.Run("owner mismatch", func(t *testing.T) {
		credit, err := env.receivables.IssueCreditMemo(ctx, other.CustomerID, decimal.NewFromInt(50), testActor)
		require.NoError(t, err)
		_, _, err = env.receivables.ApplyCredit(ctx, credit.CreditID, invoice.InvoiceID, decimal.NewFromInt(50), testActor)
		assert.ErrorIs(t, err, apperrors.ErrOwnerMismatch)
	})

	t.Run("exceeds credit balance", func(t *testing.T) {
		credit, err := env.receivables.IssueCreditMemo(ctx, customer.CustomerID, decimal.NewFromInt(30), testActor)
		require.NoError(t, err)
		_, _, err = env.receivables.ApplyCredit(ctx, credit.CreditID, invoice.InvoiceID, decimal.NewFromInt(31), testActor)
		assert.ErrorIs(t, err, apperrors.ErrCreditExceeded)
	})

	t.Run("exceeds balance due", func(t *testing.T) {
		credit, err := env.receivables.IssueCreditMemo(ctx, customer.CustomerID, decimal.NewFromInt(500), testActor)
		require.NoError(t, err)
		_, _, err = env.receivables.ApplyCredit(ctx, credit.CreditID, invoice.InvoiceID, decimal.NewFromInt(101), testActor)
		assert.ErrorIs(t, err, apperrors.ErrPaymentExceedsBalance)
	})
}

func TestVoidInvoice(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	customer := env.newCustomer(t)

	t.Run("sent invoice reverses its entry", func(t *testing.T) {
		invoice := env.newSentInvoice(t, customer.CustomerID, 500)

		voided, err := env.receivables.VoidInvoice(ctx, invoice.InvoiceID, testActor)
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceVoided, voided.Status)
		assert.True(t, voided.BalanceDue.IsZero())

		assert.True(t, env.balance(t, env.receivableID).IsZero())
		assert.True(t, env.balance(t, env.incomeID).IsZero())

		_, err = env.receivables.VoidInvoice(ctx, invoice.InvoiceID, testActor)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
	})

	t.Run("with payments is rejected", func(t *testing.T) {
		invoice := env.newSentInvoice(t, customer.CustomerID, 500)
		_, err := env.receivables.ApplyPayment(ctx, invoice.InvoiceID, decimal.NewFromInt(100), testActor)
		require.NoError(t, err)

		_, err = env.receivables.VoidInvoice(ctx, invoice.InvoiceID, testActor)
		assert.ErrorIs(t, err, apperrors.ErrCannotVoidWithPayments)
	})

	t.Run("draft voids without a reversal", func(t *testing.T) {
		draft, err := env.receivables.CreateInvoice(ctx, dto.CreateInvoiceRequest{
			CustomerID: customer.CustomerID,
			Lines:      []dto.LineItemRequest{{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)}},
		}, testActor)
		require.NoError(t, err)

		voided, err := env.receivables.VoidInvoice(ctx, draft.InvoiceID, testActor)
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceVoided, voided.Status)
	})
}

func TestCreateInvoiceRejections(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	_, err := env.receivables.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		CustomerID: "no-such-customer",
		Lines:      []dto.LineItemRequest{{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)}},
	}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrUnknownCustomer)

	customer := env.newCustomer(t)
	_, err = env.receivables.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		CustomerID: customer.CustomerID,
		Lines:      []dto.LineItemRequest{{Description: "Freebie", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.Zero}},
	}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestListInvoicesByCustomer(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	customer := env.newCustomer(t)

	for i := 0; i < 3; i++ {
		_, err := env.receivables.CreateInvoice(ctx, dto.CreateInvoiceRequest{
			CustomerID: customer.CustomerID,
			Lines:      []dto.LineItemRequest{{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)}},
		}, testActor)
		require.NoError(t, err)
	}

	invoices, err := env.receivables.ListInvoicesByCustomer(ctx, customer.CustomerID, 10, 0)
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	// Newest first.
	assert.Equal(t, int64(3), invoices[0].InvoiceNumber)
	assert.Equal(t, int64(1), invoices[2].InvoiceNumber)

	page, err := env.receivables.ListInvoicesByCustomer(ctx, customer.CustomerID, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(2), page[0].InvoiceNumber)
}
