package goload

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdataDir(name string) string {
	return filepath.Join("..", "..", "testdata", "gomod", name)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func moduleNames(t *testing.T, res *Result, chunk string) []string {
	t.Helper()
	c, ok := res.Graph.Chunk(chunk)
	require.True(t, ok, "chunk %s", chunk)
	var out []string
	for _, m := range c.Modules() {
		out = append(out, m.Name)
	}
	return out
}

func TestLoad_MainPackagesBecomeEntrypoints(t *testing.T) {
	res, err := Load(context.Background(), testdataDir("multi"), Options{}, testLogger())
	require.NoError(t, err)
	require.NoError(t, res.Graph.Validate())

	assert.Equal(t, "example.com/app", res.ModulePath)
	assert.Equal(t, 4, res.Packages)

	require.Len(t, res.Graph.Entrypoints(), 2)
	assert.Equal(t, "app", res.Graph.Entrypoints()[0].Name)
	assert.Equal(t, "tool", res.Graph.Entrypoints()[1].Name)

	assert.Equal(t, []string{
		"example.com/app/internal/b",
		"example.com/app/internal/a",
		"example.com/app/cmd/app",
	}, moduleNames(t, res, "app"))
	assert.Equal(t, []string{
		"example.com/app/internal/b",
		"example.com/app/cmd/tool",
	}, moduleNames(t, res, "tool"))

	// Shared packages are one module owned by both chunks.
	b, ok := res.Graph.Module("example.com/app/internal/b")
	require.True(t, ok)
	assert.Len(t, b.Chunks(), 2)

	for _, c := range res.Graph.Chunks() {
		assert.True(t, c.HasRuntime(), c.String())
	}
}

func TestLoad_IncludeStdlib(t *testing.T) {
	res, err := Load(context.Background(), testdataDir("multi"), Options{IncludeStdlib: true}, testLogger())
	require.NoError(t, err)

	names := moduleNames(t, res, "app")
	assert.Contains(t, names, "fmt")
	assert.Contains(t, names, "strings")
	assert.Equal(t, "example.com/app/cmd/app", names[len(names)-1], "the main package comes last")
}

func TestLoad_Filter(t *testing.T) {
	res, err := Load(context.Background(), testdataDir("multi"), Options{Filter: "example.com/app/internal"}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"example.com/app/internal/b",
		"example.com/app/internal/a",
	}, moduleNames(t, res, "app"))
}

func TestLoad_NoMainUsesFallbackChunk(t *testing.T) {
	res, err := Load(context.Background(), testdataDir("lib"), Options{}, testLogger())
	require.NoError(t, err)

	require.Len(t, res.Graph.Chunks(), 1)
	assert.ElementsMatch(t, []string{
		"example.com/lib/codec",
		"example.com/lib/store",
	}, moduleNames(t, res, FallbackChunk))
	assert.Equal(t, "module", res.Graph.Entrypoints()[0].Name)
}

func TestIsStdlib(t *testing.T) {
	assert.True(t, isStdlib("fmt"))
	assert.True(t, isStdlib("net/http"))
	assert.False(t, isStdlib("example.com/app"))
	assert.False(t, isStdlib("github.com/spf13/cobra"))
}

func TestLoad_ChunkNamesUseBaseName(t *testing.T) {
	res, err := Load(context.Background(), testdataDir("multi"), Options{}, testLogger())
	require.NoError(t, err)
	_, ok := res.Graph.Chunk("app")
	assert.True(t, ok)
	_, ok = res.Graph.Chunk("example.com/app/cmd/app")
	assert.False(t, ok, "unique base names are used as is")
}
