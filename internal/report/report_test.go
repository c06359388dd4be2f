package report

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
	"github.com/olehluchkiv/chunksplit/internal/partition"
)

func splitGraph(t *testing.T, n int) (*chunkgraph.Graph, *partition.Result, int) {
	t.Helper()
	g := chunkgraph.New()
	main := g.CreateChunk("main")
	for i := range n {
		g.Connect(g.AddModule(fmt.Sprintf("src/%d.js", i)), main)
	}
	g.AddEntrypoint("main", main)
	before := len(g.Chunks())

	res, err := partition.Split(context.Background(), g, g.Chunks(), partition.DefaultOptions())
	require.NoError(t, err)
	return g, res, before
}

func TestSummarize(t *testing.T) {
	g, res, before := splitGraph(t, 250)
	s := Summarize(g, res, before)
	assert.Equal(t, Summary{ChunksBefore: 1, ChunksAfter: 4, Split: 1, Created: 3, Largest: 100}, s)
}

func TestRender(t *testing.T) {
	g, res, before := splitGraph(t, 250)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, g, res, before))
	out := buf.String()

	assert.Contains(t, out, "Chunk splitting")
	assert.Contains(t, out, "1 chunks -> 4 chunks, 1 split, 3 parts created, largest chunk 100 modules")
	assert.Contains(t, out, "SOURCE")
	for _, part := range []string{"main-part-1", "main-part-2", "main-part-3"} {
		assert.Contains(t, out, part)
	}
	assert.Contains(t, out, "entry")
	assert.Contains(t, out, "49")
}

func TestRender_NothingToSplit(t *testing.T) {
	g, res, before := splitGraph(t, 10)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, g, res, before))
	assert.Contains(t, buf.String(), "nothing to split")
	assert.NotContains(t, buf.String(), "SOURCE")
}
