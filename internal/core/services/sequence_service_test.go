package services_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
)

func TestSequenceInitAndNext(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	require.NoError(t, env.sequence.InitScope(ctx, "testseq:a", 100, testActor))

	peek, err := env.sequence.Peek(ctx, "testseq:a")
	require.NoError(t, err)
	assert.Equal(t, int64(100), peek)

	for want := int64(100); want < 105; want++ {
		got, err := env.sequence.Next(ctx, "testseq:a")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Peek never consumes.
	peek, err = env.sequence.Peek(ctx, "testseq:a")
	require.NoError(t, err)
	assert.Equal(t, int64(105), peek)
}

func TestSequenceDuplicateInit(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	require.NoError(t, env.sequence.InitScope(ctx, "testseq:dup", 1, testActor))
	err := env.sequence.InitScope(ctx, "testseq:dup", 50, testActor)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	// The original seed survives.
	next, err := env.sequence.Next(ctx, "testseq:dup")
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
}

func TestSequenceUnknownScope(t *testing.T) {
	env := newEngineEnv(t)

	_, err := env.sequence.Next(context.Background(), "testseq:missing")
	assert.ErrorIs(t, err, apperrors.ErrScopeNotFound)

	_, err = env.sequence.Peek(context.Background(), "testseq:missing")
	assert.ErrorIs(t, err, apperrors.ErrScopeNotFound)
}

func TestSequenceConcurrentNextIsGapless(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	require.NoError(t, env.sequence.InitScope(ctx, "testseq:race", 1, testActor))

	const n = 100
	values := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			values[slot], errs[slot] = env.sequence.Next(ctx, "testseq:race")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		assert.Equal(t, int64(i+1), v, "sequence values must be unique and contiguous")
	}
}
