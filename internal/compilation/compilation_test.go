package compilation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
)

func TestNew(t *testing.T) {
	c := New(chunkgraph.New())
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, PhaseBuilding, c.Phase())
	assert.NotEqual(t, c.ID, New(chunkgraph.New()).ID)
}

func TestMarkOnce(t *testing.T) {
	c := New(chunkgraph.New())
	assert.True(t, c.MarkOnce("a"))
	assert.False(t, c.MarkOnce("a"))
	assert.True(t, c.MarkOnce("b"))

	other := New(chunkgraph.New())
	assert.True(t, other.MarkOnce("a"), "markers are per compilation")
}

func TestSeal_RerunsHookUntilSettled(t *testing.T) {
	c := New(chunkgraph.New())
	var calls []string

	remaining := 2
	require.NoError(t, c.Tap(HookOptimizeChunks, "shrinker", func(context.Context, *Compilation) (bool, error) {
		calls = append(calls, "chunks")
		if remaining > 0 {
			remaining--
			return true, nil
		}
		return false, nil
	}))
	require.NoError(t, c.Tap(HookOptimizeExtractedChunks, "extracted", func(_ context.Context, got *Compilation) (bool, error) {
		assert.Equal(t, PhaseOptimizing, got.Phase())
		calls = append(calls, "extracted")
		return false, nil
	}))

	require.NoError(t, c.Seal(context.Background()))
	assert.Equal(t, []string{"chunks", "chunks", "chunks", "extracted"}, calls)
	assert.Equal(t, PhaseSealed, c.Phase())
}

func TestSeal_LoopGuard(t *testing.T) {
	c := New(chunkgraph.New())
	c.MaxIterations = 3
	calls := 0
	require.NoError(t, c.Tap(HookOptimizeChunks, "forever", func(context.Context, *Compilation) (bool, error) {
		calls++
		return true, nil
	}))

	err := c.Seal(context.Background())
	require.ErrorIs(t, err, ErrOptimizeLoop)
	assert.Equal(t, 3, calls)
	assert.Equal(t, PhaseOptimizing, c.Phase())
}

func TestSeal_HandlerErrorAborts(t *testing.T) {
	c := New(chunkgraph.New())
	boom := errors.New("boom")
	require.NoError(t, c.Tap(HookOptimizeChunks, "broken", func(context.Context, *Compilation) (bool, error) {
		return false, boom
	}))
	called := false
	require.NoError(t, c.Tap(HookOptimizeExtractedChunks, "later", func(context.Context, *Compilation) (bool, error) {
		called = true
		return false, nil
	}))

	err := c.Seal(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
	assert.False(t, called)
}

func TestSeal_ValidatesGraph(t *testing.T) {
	g := chunkgraph.New()
	parent := g.CreateChunk("parent")
	child := g.CreateChunk("child")
	g.AddParent(child, parent)
	g.AddEntrypoint("main", child, parent)

	err := New(g).Seal(context.Background())
	require.ErrorIs(t, err, chunkgraph.ErrInconsistent)
}

func TestSeal_Twice(t *testing.T) {
	c := New(chunkgraph.New())
	require.NoError(t, c.Seal(context.Background()))
	require.ErrorIs(t, c.Seal(context.Background()), ErrSealed)
	require.ErrorIs(t, c.Tap(HookOptimizeChunks, "late", nil), ErrSealed)
}
