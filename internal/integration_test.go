package internal_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
	"github.com/olehluchkiv/chunksplit/internal/compilation"
	"github.com/olehluchkiv/chunksplit/internal/diagram"
	"github.com/olehluchkiv/chunksplit/internal/goload"
	"github.com/olehluchkiv/chunksplit/internal/logging"
	"github.com/olehluchkiv/chunksplit/internal/manifest"
	"github.com/olehluchkiv/chunksplit/internal/partition"
	"github.com/olehluchkiv/chunksplit/internal/plugin"
)

func testdataDir(parts ...string) string {
	return filepath.Join(append([]string{"..", "testdata"}, parts...)...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// moduleSet returns the sorted module names held by any chunk of g.
func moduleSet(g *chunkgraph.Graph) []string {
	seen := map[string]bool{}
	for _, c := range g.Chunks() {
		for _, m := range c.Modules() {
			seen[m.Name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func entrypointChunks(g *chunkgraph.Graph, name string) []string {
	for _, ep := range g.Entrypoints() {
		if ep.Name != name {
			continue
		}
		var out []string
		for _, c := range ep.Chunks() {
			out = append(out, c.String())
		}
		return out
	}
	return nil
}

// seal runs the splitting plugin over g inside a fresh compilation.
func seal(t *testing.T, g *chunkgraph.Graph, opts partition.Options) *partition.Result {
	t.Helper()
	ctx := logging.WithLogger(context.Background(), testLogger())

	c := compilation.New(g)
	p := plugin.New(opts)
	require.NoError(t, p.Apply(c))
	require.NoError(t, c.Seal(ctx))
	require.Equal(t, compilation.PhaseSealed, c.Phase())

	res := &partition.Result{}
	for _, r := range p.Results() {
		res.Created = append(res.Created, r.Created...)
		res.Splits = append(res.Splits, r.Splits...)
	}
	return res
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()

	loadModule := func(dir string) func(t *testing.T) *chunkgraph.Graph {
		return func(t *testing.T) *chunkgraph.Graph {
			res, err := goload.Load(ctx, dir, goload.Options{}, logger)
			require.NoError(t, err)
			return res.Graph
		}
	}
	loadManifest := func(path string) func(t *testing.T) *chunkgraph.Graph {
		return func(t *testing.T) *chunkgraph.Graph {
			g, err := manifest.Load(path)
			require.NoError(t, err)
			return g
		}
	}

	tests := []struct {
		name     string
		load     func(t *testing.T) *chunkgraph.Graph
		opts     partition.Options
		validate func(t *testing.T, g *chunkgraph.Graph, res *partition.Result)
	}{
		{
			name: "gomod_multi_aggressive",
			load: loadModule(testdataDir("gomod", "multi")),
			opts: partition.Options{MaxModulesPerChunk: 1},
			validate: func(t *testing.T, g *chunkgraph.Graph, res *partition.Result) {
				assert.Len(t, res.Created, 3)
				assert.Equal(t, []string{"app-part-1", "app-part-2", "app"}, entrypointChunks(g, "app"))
				assert.Equal(t, []string{"tool-part-1", "tool"}, entrypointChunks(g, "tool"))

				app, ok := g.Chunk("app")
				require.True(t, ok)
				assert.False(t, app.HasRuntime())
				first, ok := g.Chunk("app-part-1")
				require.True(t, ok)
				assert.True(t, first.HasRuntime())
			},
		},
		{
			name: "gomod_multi_within_limits",
			load: loadModule(testdataDir("gomod", "multi")),
			opts: partition.Options{MaxModulesPerChunk: 10, MaxModulesPerEntry: 10},
			validate: func(t *testing.T, g *chunkgraph.Graph, res *partition.Result) {
				assert.False(t, res.Changed())
				assert.Equal(t, []string{"app"}, entrypointChunks(g, "app"))
			},
		},
		{
			name: "gomod_lib_fallback_chunk",
			load: loadModule(testdataDir("gomod", "lib")),
			opts: partition.Options{MaxModulesPerChunk: 1},
			validate: func(t *testing.T, g *chunkgraph.Graph, res *partition.Result) {
				require.Len(t, res.Created, 1)
				assert.Equal(t, []string{"module-part-1", goload.FallbackChunk}, entrypointChunks(g, goload.FallbackChunk))
			},
		},
		{
			name: "manifest_app",
			load: loadManifest(testdataDir("manifests", "app.yaml")),
			opts: partition.Options{MaxModulesPerChunk: 2, MaxModulesPerEntry: 1},
			validate: func(t *testing.T, g *chunkgraph.Graph, res *partition.Result) {
				assert.True(t, res.Changed())

				// Every part of the lazily loaded page is loaded by the
				// router's block.
				settings, ok := g.Chunk("settings")
				require.True(t, ok)
				require.Len(t, settings.Blocks(), 1)
				block := settings.Blocks()[0]
				for _, s := range res.Splits {
					if s.Source != settings {
						continue
					}
					assert.True(t, s.Async)
					for _, part := range s.Parts {
						assert.True(t, block.HasChunk(part), part.String())
						assert.True(t, part.ExtraAsync, part.String())
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.load(t)
			modules := moduleSet(g)
			limit := tt.opts.MaxModulesPerChunk

			res := seal(t, g, tt.opts)

			require.NoError(t, g.Validate())
			assert.Equal(t, modules, moduleSet(g), "modules must be conserved")
			for _, c := range g.Chunks() {
				assert.LessOrEqual(t, c.ModuleCount(), limit, c.String())
			}
			tt.validate(t, g, res)

			// The partitioned graph survives a manifest round trip.
			data, err := manifest.Marshal(manifest.FromGraph(g), false)
			require.NoError(t, err)
			decoded, err := manifest.Decode(bytes.NewReader(data), false)
			require.NoError(t, err)
			rebuilt, err := decoded.Build()
			require.NoError(t, err)
			if diff := cmp.Diff(manifest.FromGraph(g), manifest.FromGraph(rebuilt)); diff != "" {
				t.Errorf("manifest round trip mismatch (-want +got):\n%s", diff)
			}

			// A second pass over the rebuilt graph has nothing left to do.
			again := seal(t, rebuilt, tt.opts)
			assert.False(t, again.Changed())

			// Both diagram renderings cover every chunk.
			mmd := diagram.GenerateMermaid(g, diagram.DefaultDiagramOptions())
			for _, c := range g.Chunks() {
				assert.Contains(t, mmd, diagram.ChunkNodeID(c))
			}
			assert.Len(t, diagram.PrepareChunks(g, nil), len(g.Chunks()))
		})
	}
}
