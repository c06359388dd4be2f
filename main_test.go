package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/chunksplit/internal/manifest"
)

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestSplit_WritesManifestAndDiagram(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "split.yaml")
	mmdPath := filepath.Join(dir, "split.mmd")

	code, stdout, stderr := execute(t, "split", "testdata/manifests/app.yaml",
		"--max-modules-per-chunk", "2",
		"--log-level", "error",
		"--out", outPath,
		"--mermaid", mmdPath)
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "Chunk splitting")
	assert.Contains(t, stdout, "3 chunks -> ")
	assert.Contains(t, stdout, "main-part-1")
	assert.Contains(t, stdout, "Wrote manifest to "+outPath)

	g, err := manifest.Load(outPath)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	for _, c := range g.Chunks() {
		assert.LessOrEqual(t, c.ModuleCount(), 2, c.String())
	}

	mmd, err := os.ReadFile(mmdPath)
	require.NoError(t, err)
	assert.Contains(t, string(mmd), "%%{init:")
	assert.Contains(t, string(mmd), "flowchart LR")
}

func TestSplit_NothingToSplit(t *testing.T) {
	code, stdout, stderr := execute(t, "split", "testdata/manifests/app.yaml", "--log-level", "error")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "nothing to split")
}

func TestSplit_ConfigFileAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()

	// aggressive.yaml caps every chunk at one module.
	outPath := filepath.Join(dir, "aggressive.json")
	code, _, stderr := execute(t, "split", "testdata/manifests/app.yaml",
		"--config", "testdata/configs/aggressive.yaml",
		"--log-level", "error",
		"--out", outPath)
	require.Equal(t, 0, code, stderr)
	g, err := manifest.Load(outPath)
	require.NoError(t, err)
	for _, c := range g.Chunks() {
		assert.LessOrEqual(t, c.ModuleCount(), 1, c.String())
	}
	aggressive := len(g.Chunks())

	// A flag overrides the config file.
	outPath = filepath.Join(dir, "relaxed.json")
	code, _, stderr = execute(t, "split", "testdata/manifests/app.yaml",
		"--config", "testdata/configs/aggressive.yaml",
		"--max-modules-per-chunk", "3",
		"--log-level", "error",
		"--out", outPath)
	require.Equal(t, 0, code, stderr)
	g, err = manifest.Load(outPath)
	require.NoError(t, err)
	assert.Less(t, len(g.Chunks()), aggressive)
	for _, c := range g.Chunks() {
		assert.LessOrEqual(t, c.ModuleCount(), 3, c.String())
	}
}

func TestSplit_EnvOverridesDefault(t *testing.T) {
	t.Setenv("CHUNKSPLIT_MAX_MODULES_PER_CHUNK", "2")
	code, stdout, stderr := execute(t, "split", "testdata/manifests/app.yaml", "--log-level", "error")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "largest chunk 2 modules")
}

func TestSplit_InvalidOptions(t *testing.T) {
	code, _, stderr := execute(t, "split", "testdata/manifests/app.yaml", "--max-modules-per-chunk", "0")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error:")
	assert.Contains(t, stderr, "maxModulesPerChunk")
}

func TestSplit_InvalidLogLevel(t *testing.T) {
	code, _, stderr := execute(t, "split", "testdata/manifests/app.yaml", "--log-level", "trace")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown log level")
}

func TestSplit_BrokenManifest(t *testing.T) {
	code, _, stderr := execute(t, "split", "testdata/manifests/broken.yaml", "--log-level", "error")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error:")
}

func TestSplit_RequiresInput(t *testing.T) {
	code, _, stderr := execute(t, "split")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "accepts 1 arg(s)")
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := execute(t, "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestHelp(t *testing.T) {
	code, stdout, _ := execute(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "split")
	assert.Contains(t, stdout, "serve")
}
