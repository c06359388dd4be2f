package plugin

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
	"github.com/olehluchkiv/chunksplit/internal/compilation"
	"github.com/olehluchkiv/chunksplit/internal/partition"
)

func entryGraph(n int) (*chunkgraph.Graph, *chunkgraph.Chunk) {
	g := chunkgraph.New()
	main := g.CreateChunk("main")
	for i := range n {
		g.Connect(g.AddModule(fmt.Sprintf("src/%d.js", i)), main)
	}
	g.AddEntrypoint("main", main)
	return g, main
}

func TestPlugin_RunsOncePerCompilation(t *testing.T) {
	g, main := entryGraph(250)
	c := compilation.New(g)
	p := New(partition.DefaultOptions())
	require.NoError(t, p.Apply(c))

	require.NoError(t, c.Seal(context.Background()))

	require.Len(t, p.Results(), 1, "the second hook and the re-run are guarded")
	assert.Len(t, p.Results()[0].Created, 3)
	assert.Equal(t, 100, main.ModuleCount())
	assert.Len(t, g.Chunks(), 4)
}

func TestPlugin_TwoInstancesEachRun(t *testing.T) {
	g, main := entryGraph(10)
	c := compilation.New(g)

	opts := partition.DefaultOptions()
	opts.MaxModulesPerChunk = 5
	first := New(opts)
	second := New(opts)
	require.NoError(t, first.Apply(c))
	require.NoError(t, second.Apply(c))

	require.NoError(t, c.Seal(context.Background()))
	require.Len(t, first.Results(), 1)
	require.Len(t, second.Results(), 1)
	assert.True(t, first.Results()[0].Changed())
	assert.LessOrEqual(t, main.ModuleCount(), 5)
}

func TestPlugin_AggressiveConfig(t *testing.T) {
	g, main := entryGraph(4)
	c := compilation.New(g)
	p := New(partition.Options{MaxModulesPerChunk: 1, MaxModulesPerEntry: 0})
	require.NoError(t, p.Apply(c))

	require.NoError(t, c.Seal(context.Background()))
	for _, ch := range g.Chunks() {
		assert.Equal(t, 1, ch.ModuleCount(), ch.String())
	}
	assert.Len(t, g.Entrypoints()[0].Chunks(), 4)
	assert.Equal(t, main, g.Entrypoints()[0].Chunks()[3])
}

func TestPlugin_ErrorAbortsSeal(t *testing.T) {
	g, _ := entryGraph(3)
	c := compilation.New(g)
	p := New(partition.Options{MaxModulesPerChunk: 0})
	require.NoError(t, p.Apply(c))

	err := c.Seal(context.Background())
	require.ErrorIs(t, err, partition.ErrInvalidConfiguration)
	assert.Empty(t, p.Results())
}
