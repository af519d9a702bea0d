package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/core/domain"
)

func TestPostUpdatesBalances(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	entry, err := env.ledger.Post(ctx, domain.EntryDraft{
		Description: "Cash sale",
		SourceType:  domain.SourceManual,
		Postings: []domain.PostingDraft{
			{AccountID: env.cashID, Amount: decimal.NewFromInt(250), Side: domain.Debit},
			{AccountID: env.incomeID, Amount: decimal.NewFromInt(250), Side: domain.Credit},
		},
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.Posted, entry.Status)
	assert.True(t, decimal.NewFromInt(250).Equal(entry.Amount))
	assert.Len(t, entry.Postings, 2)

	assert.True(t, decimal.NewFromInt(250).Equal(env.balance(t, env.cashID)))
	assert.True(t, decimal.NewFromInt(250).Equal(env.balance(t, env.incomeID)))
}

func TestPostUnbalancedRejected(t *testing.T) {
	env := newEngineEnv(t)

	_, err := env.ledger.Post(context.Background(), domain.EntryDraft{
		Description: "Lopsided",
		SourceType:  domain.SourceManual,
		Postings: []domain.PostingDraft{
			{AccountID: env.cashID, Amount: decimal.NewFromInt(100), Side: domain.Debit},
			{AccountID: env.incomeID, Amount: decimal.NewFromInt(90), Side: domain.Credit},
		},
	}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrUnbalancedEntry)

	// Nothing moved.
	assert.True(t, env.balance(t, env.cashID).IsZero())
	assert.True(t, env.balance(t, env.incomeID).IsZero())
}

func TestPostUnknownAccountRejected(t *testing.T) {
	env := newEngineEnv(t)

	_, err := env.ledger.Post(context.Background(), domain.EntryDraft{
		Description: "Bad account",
		SourceType:  domain.SourceManual,
		Postings: []domain.PostingDraft{
			{AccountID: "no-such-account", Amount: decimal.NewFromInt(100), Side: domain.Debit},
			{AccountID: env.incomeID, Amount: decimal.NewFromInt(100), Side: domain.Credit},
		},
	}, testActor)
	assert.ErrorIs(t, err, apperrors.ErrUnknownAccount)
}

func TestBalanceOfAsOf(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	early := time.Now().UTC().Add(-48 * time.Hour)
	late := time.Now().UTC().Add(-1 * time.Hour)

	_, err := env.ledger.Post(ctx, domain.EntryDraft{
		Date:        early,
		Description: "Old deposit",
		SourceType:  domain.SourceManual,
		Postings: []domain.PostingDraft{
			{AccountID: env.cashID, Amount: decimal.NewFromInt(100), Side: domain.Debit},
			{AccountID: env.incomeID, Amount: decimal.NewFromInt(100), Side: domain.Credit},
		},
	}, testActor)
	require.NoError(t, err)

	_, err = env.ledger.Post(ctx, domain.EntryDraft{
		Date:        late,
		Description: "Recent deposit",
		SourceType:  domain.SourceManual,
		Postings: []domain.PostingDraft{
			{AccountID: env.cashID, Amount: decimal.NewFromInt(50), Side: domain.Debit},
			{AccountID: env.incomeID, Amount: decimal.NewFromInt(50), Side: domain.Credit},
		},
	}, testActor)
	require.NoError(t, err)

	cutoff := early.Add(time.Hour)
	asOfBalance, err := env.ledger.BalanceOf(ctx, env.cashID, &cutoff)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(asOfBalance), "got %s", asOfBalance)

	current, err := env.ledger.BalanceOf(ctx, env.cashID, nil)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(current), "got %s", current)
}

func TestReverseRestoresBalances(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	entry, err := env.ledger.Post(ctx, domain.EntryDraft{
		Description: "Mistaken entry",
		SourceType:  domain.SourceManual,
		Postings: []domain.PostingDraft{
			{AccountID: env.cashID, Amount: decimal.NewFromInt(75), Side: domain.Debit},
			{AccountID: env.incomeID, Amount: decimal.NewFromInt(75), Side: domain.Credit},
		},
	}, testActor)
	require.NoError(t, err)

	reversing, err := env.ledger.Reverse(ctx, entry.JournalID, testActor)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceReversal, reversing.SourceType)
	require.NotNil(t, reversing.OriginalJournalID)
	assert.Equal(t, entry.JournalID, *reversing.OriginalJournalID)

	// Sides are flipped on the reversing postings.
	require.Len(t, reversing.Postings, 2)
	for _, p := range reversing.Postings {
		if p.AccountID == env.cashID {
			assert.Equal(t, domain.Credit, p.Side)
		} else {
			assert.Equal(t, domain.Debit, p.Side)
		}
	}

	assert.True(t, env.balance(t, env.cashID).IsZero())
	assert.True(t, env.balance(t, env.incomeID).IsZero())

	original, err := env.ledger.GetJournalByID(ctx, entry.JournalID)
	require.NoError(t, err)
	assert.Equal(t, domain.Reversed, original.Status)
	require.NotNil(t, original.ReversingJournalID)
	assert.Equal(t, reversing.JournalID, *original.ReversingJournalID)
}

func TestReverseTwiceRejected(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	entry, err := env.ledger.Post(ctx, domain.EntryDraft{
		Description: "Entry",
		SourceType:  domain.SourceManual,
		Postings: []domain.PostingDraft{
			{AccountID: env.cashID, Amount: decimal.NewFromInt(10), Side: domain.Debit},
			{AccountID: env.incomeID, Amount: decimal.NewFromInt(10), Side: domain.Credit},
		},
	}, testActor)
	require.NoError(t, err)

	_, err = env.ledger.Reverse(ctx, entry.JournalID, testActor)
	require.NoError(t, err)

	_, err = env.ledger.Reverse(ctx, entry.JournalID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyReversed)
}

func TestConcurrentReversalsOnlyOneWins(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	entry, err := env.ledger.Post(ctx, domain.EntryDraft{
		Description: "Entry",
		SourceType:  domain.SourceManual,
		Postings: []domain.PostingDraft{
			{AccountID: env.cashID, Amount: decimal.NewFromInt(40), Side: domain.Debit},
			{AccountID: env.incomeID, Amount: decimal.NewFromInt(40), Side: domain.Credit},
		},
	}, testActor)
	require.NoError(t, err)

	const n = 20
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = env.ledger.Reverse(ctx, entry.JournalID, testActor)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrAlreadyReversed)
	}
	assert.Equal(t, 1, wins, "racing reversals must produce exactly one reversing entry")

	// Balances flipped back exactly once, not n times.
	assert.True(t, env.balance(t, env.cashID).IsZero())
	assert.True(t, env.balance(t, env.incomeID).IsZero())
}

func TestReverseAReversalRejected(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	entry, err := env.ledger.Post(ctx, domain.EntryDraft{
		Description: "Entry",
		SourceType:  domain.SourceManual,
		Postings: []domain.PostingDraft{
			{AccountID: env.cashID, Amount: decimal.NewFromInt(10), Side: domain.Debit},
			{AccountID: env.incomeID, Amount: decimal.NewFromInt(10), Side: domain.Credit},
		},
	}, testActor)
	require.NoError(t, err)

	reversing, err := env.ledger.Reverse(ctx, entry.JournalID, testActor)
	require.NoError(t, err)

	_, err = env.ledger.Reverse(ctx, reversing.JournalID, testActor)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestReverseUnknownEntry(t *testing.T) {
	env := newEngineEnv(t)

	_, err := env.ledger.Reverse(context.Background(), "missing", testActor)
	assert.ErrorIs(t, err, apperrors.ErrEntryNotFound)
}

func TestGetAccountByIDUnknown(t *testing.T) {
	env := newEngineEnv(t)

	_, err := env.ledger.GetAccountByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrUnknownAccount)
}
