package accounting_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
	"github.com/agrodesk/genfin_backend/internal/utils/accounting"
)

func TestSignedAmount(t *testing.T) {
	amount := decimal.NewFromInt(100)

	tests := []struct {
		name        string
		accountType domain.AccountType
		side        domain.PostingSide
		want        decimal.Decimal
	}{
		{"debit asset grows", domain.Asset, domain.Debit, amount},
		{"credit asset shrinks", domain.Asset, domain.Credit, amount.Neg()},
		{"debit expense grows", domain.Expense, domain.Debit, amount},
		{"credit expense shrinks", domain.Expense, domain.Credit, amount.Neg()},
		{"credit liability grows", domain.Liability, domain.Credit, amount},
		{"debit liability shrinks", domain.Liability, domain.Debit, amount.Neg()},
		{"credit income grows", domain.Income, domain.Credit, amount},
		{"debit income shrinks", domain.Income, domain.Debit, amount.Neg()},
		{"credit equity grows", domain.Equity, domain.Credit, amount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := accounting.SignedAmount(domain.Posting{Amount: amount, Side: tt.side}, tt.accountType)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestSignedAmountUnknownType(t *testing.T) {
	_, err := accounting.SignedAmount(domain.Posting{Amount: decimal.NewFromInt(1), Side: domain.Debit}, "BOGUS")
	assert.Error(t, err)
}

func TestValidateEntryBalance(t *testing.T) {
	balanced := []domain.PostingDraft{
		{AccountID: "a", Amount: decimal.NewFromInt(100), Side: domain.Debit},
		{AccountID: "b", Amount: decimal.NewFromInt(100), Side: domain.Credit},
	}
	assert.NoError(t, accounting.ValidateEntryBalance(balanced))

	multiLeg := []domain.PostingDraft{
		{AccountID: "a", Amount: decimal.NewFromInt(60), Side: domain.Debit},
		{AccountID: "b", Amount: decimal.NewFromInt(40), Side: domain.Debit},
		{AccountID: "c", Amount: decimal.NewFromInt(100), Side: domain.Credit},
	}
	assert.NoError(t, accounting.ValidateEntryBalance(multiLeg))
}

func TestValidateEntryBalanceRejections(t *testing.T) {
	t.Run("single posting", func(t *testing.T) {
		err := accounting.ValidateEntryBalance([]domain.PostingDraft{
			{AccountID: "a", Amount: decimal.NewFromInt(100), Side: domain.Debit},
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("zero amount", func(t *testing.T) {
		err := accounting.ValidateEntryBalance([]domain.PostingDraft{
			{AccountID: "a", Amount: decimal.Zero, Side: domain.Debit},
			{AccountID: "b", Amount: decimal.Zero, Side: domain.Credit},
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("negative amount", func(t *testing.T) {
		err := accounting.ValidateEntryBalance([]domain.PostingDraft{
			{AccountID: "a", Amount: decimal.NewFromInt(-5), Side: domain.Debit},
			{AccountID: "b", Amount: decimal.NewFromInt(-5), Side: domain.Credit},
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unbalanced", func(t *testing.T) {
		err := accounting.ValidateEntryBalance([]domain.PostingDraft{
			{AccountID: "a", Amount: decimal.NewFromInt(100), Side: domain.Debit},
			{AccountID: "b", Amount: decimal.NewFromInt(99), Side: domain.Credit},
		})
		assert.ErrorIs(t, err, apperrors.ErrUnbalancedEntry)
	})
}

func TestEntryAmount(t *testing.T) {
	postings := []domain.Posting{
		{Amount: decimal.NewFromInt(60), Side: domain.Debit},
		{Amount: decimal.NewFromInt(40), Side: domain.Debit},
		{Amount: decimal.NewFromInt(100), Side: domain.Credit},
	}
	assert.True(t, decimal.NewFromInt(100).Equal(accounting.EntryAmount(postings)))
}
