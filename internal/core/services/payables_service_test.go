package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/agrodesk/genfin_backend/internal/dto"
)

func TestBillLifecycle(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	vendor := env.newVendor(t)

	bill, err := env.payables.CreateBill(ctx, dto.CreateBillRequest{
		VendorID: vendor.VendorID,
		Lines: []dto.LineItemRequest{
			{Description: "Paper", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(30)},
		},
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.BillDraft, bill.Status)
	assert.Equal(t, int64(1), bill.BillNumber)
	assert.True(t, decimal.NewFromInt(300).Equal(bill.Total))

	bill, err = env.payables.SendBill(ctx, bill.BillID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.BillSent, bill.Status)
	require.NotNil(t, bill.JournalID)

	// Expense recognized, payable owed.
	assert.True(t, decimal.NewFromInt(300).Equal(env.balance(t, env.expenseID)))
	assert.True(t, decimal.NewFromInt(300).Equal(env.balance(t, env.payableID)))

	bill, err = env.payables.ApplyPayment(ctx, bill.BillID, decimal.NewFromInt(300), testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.BillPaid, bill.Status)
	assert.True(t, bill.BalanceDue.IsZero())

	assert.True(t, env.balance(t, env.payableID).IsZero())
	assert.True(t, decimal.NewFromInt(-300).Equal(env.balance(t, env.cashID)))
}

func TestVendorCreditFlow(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	vendor := env.newVendor(t)
	bill := env.newSentBill(t, vendor.VendorID, 500)

	credit, err := env.payables.IssueCreditMemo(ctx, vendor.VendorID, decimal.NewFromInt(200), testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.VendorCredit, credit.OwnerType)
	assert.True(t, decimal.NewFromInt(200).Equal(env.balance(t, env.vendorCreditID)))

	credit, bill, err = env.payables.ApplyCredit(ctx, credit.CreditID, bill.BillID, decimal.NewFromInt(200), testActor)
	require.NoError(t, err)
	assert.True(t, credit.RemainingBalance.IsZero())
	assert.True(t, decimal.NewFromInt(300).Equal(bill.BalanceDue))
	assert.Equal(t, domain.BillPartial, bill.Status)

	assert.True(t, env.balance(t, env.vendorCreditID).IsZero())
	assert.True(t, decimal.NewFromInt(300).Equal(env.balance(t, env.payableID)))
}

func TestVoidBillWithPaymentsRejected(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	vendor := env.newVendor(t)
	bill := env.newSentBill(t, vendor.VendorID, 500)

	_, err := env.payables.ApplyPayment(ctx, bill.BillID, decimal.NewFromInt(100), testActor)
	require.NoError(t, err)

	_, err = env.payables.VoidBill(ctx, bill.BillID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrCannotVoidWithPayments)
}

func TestVoidBillReversesEntry(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	vendor := env.newVendor(t)
	bill := env.newSentBill(t, vendor.VendorID, 500)

	voided, err := env.payables.VoidBill(ctx, bill.BillID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.BillVoided, voided.Status)

	assert.True(t, env.balance(t, env.payableID).IsZero())
	assert.True(t, env.balance(t, env.expenseID).IsZero())
}

func TestPurchaseOrderLifecycle(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()
	vendor := env.newVendor(t)

	po, err := env.payables.CreatePurchaseOrder(ctx, dto.CreatePurchaseOrderRequest{
		VendorID: vendor.VendorID,
		Lines: []dto.LineItemRequest{
			{Description: "Desks", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(120)},
		},
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.PODraft, po.Status)
	assert.True(t, decimal.NewFromInt(600).Equal(po.Total))

	// POs are commitments, not postings.
	assert.True(t, env.balance(t, env.expenseID).IsZero())

	// Cannot receive before approval.
	_, err = env.payables.ReceivePurchaseOrder(ctx, po.PurchaseOrderID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)

	po, err = env.payables.ApprovePurchaseOrder(ctx, po.PurchaseOrderID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.POApproved, po.Status)

	// Conversion requires goods received.
	_, err = env.payables.ConvertPOToBill(ctx, po.PurchaseOrderID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrPOMustBeReceived)

	po, err = env.payables.ReceivePurchaseOrder(ctx, po.PurchaseOrderID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.POReceived, po.Status)

	bill, err := env.payables.ConvertPOToBill(ctx, po.PurchaseOrderID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.BillDraft, bill.Status)
	assert.True(t, decimal.NewFromInt(600).Equal(bill.Total))
	require.NotNil(t, bill.PurchaseOrderID)
	assert.Equal(t, po.PurchaseOrderID, *bill.PurchaseOrderID)

	po, err = env.payables.GetPurchaseOrderByID(ctx, po.PurchaseOrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.POConverted, po.Status)
	require.NotNil(t, po.BillID)
	assert.Equal(t, bill.BillID, *po.BillID)

	// A second conversion is rejected.
	_, err = env.payables.ConvertPOToBill(ctx, po.PurchaseOrderID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyConverted)
}

func TestCreateBillUnknownVendor(t *testing.T) {
	env := newEngineEnv(t)

	_, err := env.payables.CreateBill(context.Background(), dto.CreateBillRequest{
		VendorID: "no-such-vendor",
		Lines:    []dto.LineItemRequest{{Description: "Paper", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)}},
	}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrUnknownVendor)
}
