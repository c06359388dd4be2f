package resolver

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedInput is returned for files that are not chunk graph manifests.
var ErrUnsupportedInput = errors.New("unsupported input")

// Kind says how a resolved input is loaded.
type Kind int

const (
	KindManifest Kind = iota // a YAML or JSON chunk graph manifest
	KindGoModule             // a Go module whose import graph is loaded
)

func (k Kind) String() string {
	switch k {
	case KindManifest:
		return "manifest"
	case KindGoModule:
		return "go-module"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source is a resolved input.
type Source struct {
	Kind  Kind
	Path  string // manifest file or module root
	Input string // what the user passed
}

// manifestExts are the file extensions read as manifests.
var manifestExts = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// skipDirs are never searched for go.mod files.
var skipDirs = map[string]bool{"vendor": true, "node_modules": true, "testdata": true}

// maxSearchDepth bounds the go.mod search below a cloned repository root.
const maxSearchDepth = 3

// Resolve takes an input (manifest file, local dir, sub-package path, or
// GitHub URL) and returns a loadable source, plus a cleanup function.
func Resolve(ctx context.Context, input string, logger *slog.Logger) (src Source, cleanup func(), err error) {
	cleanup = func() {} // default no-op
	logger = logger.With("component", "resolver")

	if isGitHubURL(input) {
		dir, err := fetchRepo(ctx, input, logger)
		if err != nil {
			return Source{}, cleanup, err
		}
		return Source{Kind: KindGoModule, Path: dir, Input: input}, cleanup, nil
	}

	absPath, err := filepath.Abs(input)
	if err != nil {
		return Source{}, cleanup, fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return Source{}, cleanup, fmt.Errorf("stat %s: %w", absPath, err)
	}

	if !info.IsDir() {
		if !manifestExts[strings.ToLower(filepath.Ext(absPath))] {
			return Source{}, cleanup, fmt.Errorf("%w: %s is neither a directory nor a .yaml/.yml/.json manifest", ErrUnsupportedInput, absPath)
		}
		logger.Info("resolved manifest", "input", input, "path", absPath)
		return Source{Kind: KindManifest, Path: absPath, Input: input}, cleanup, nil
	}

	// Find module root (nearest go.mod)
	modRoot, err := findModuleRoot(absPath)
	if err != nil {
		return Source{}, cleanup, err
	}
	logger.Info("resolved local directory", "input", input, "module_root", modRoot)

	if err := goModDownload(ctx, modRoot, logger); err != nil {
		logger.Warn("go mod download failed", "error", err)
	}
	return Source{Kind: KindGoModule, Path: modRoot, Input: input}, cleanup, nil
}

func isGitHubURL(input string) bool {
	return strings.Contains(input, "github.com") &&
		(strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://"))
}

// cacheDir returns a stable directory for caching a cloned repo.
// Uses ~/.cache/chunksplit/repos/<hash> where hash is derived from the URL.
func cacheDir(url string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}
	h := sha256.Sum256([]byte(url))
	return filepath.Join(home, ".cache", "chunksplit", "repos", fmt.Sprintf("%x", h[:8])), nil
}

// fetchRepo updates a cached clone or clones afresh, and returns the module root.
func fetchRepo(ctx context.Context, url string, logger *slog.Logger) (string, error) {
	dir, err := cacheDir(url)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return cloneRepo(ctx, url, dir, logger)
	}

	logger.Info("updating cached repository", "url", url, "dir", dir)
	for _, args := range [][]string{
		{"fetch", "--depth=1", "origin"},
		{"reset", "--hard", "origin/HEAD"},
	} {
		if err := git(ctx, dir, args...); err != nil {
			logger.Warn("git "+args[0]+" failed, will re-clone", "error", err)
			_ = os.RemoveAll(dir)
			return cloneRepo(ctx, url, dir, logger)
		}
	}
	logger.Info("repository updated", "dir", dir)
	return moduleRootOf(ctx, dir, logger)
}

func cloneRepo(ctx context.Context, url, dir string, logger *slog.Logger) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}

	logger.Info("cloning repository", "url", url, "dest", dir)
	if err := git(ctx, "", "clone", "--depth=1", url, dir); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("git clone: %w", err)
	}
	logger.Info("clone complete", "dest", dir)

	root, err := moduleRootOf(ctx, dir, logger)
	if err != nil {
		_ = os.RemoveAll(dir)
	}
	return root, err
}

// moduleRootOf finds the module inside a cloned repository; go.mod may not
// be at the repo root.
func moduleRootOf(ctx context.Context, dir string, logger *slog.Logger) (string, error) {
	modRoot, err := findModuleRootInTree(dir)
	if err != nil {
		return "", fmt.Errorf("no go.mod found in repository: %w", err)
	}
	logger.Info("found module root", "module_root", modRoot)

	if err := goModDownload(ctx, modRoot, logger); err != nil {
		logger.Warn("go mod download failed", "error", err)
	}
	return modRoot, nil
}

func git(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func findModuleRoot(dir string) (string, error) {
	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no go.mod found in %s or any parent directory", dir)
		}
		current = parent
	}
}

// findModuleRootInTree searches root breadth-first for a go.mod file and
// returns the shallowest directory holding one. Directories at the same depth
// are visited in name order; hidden, vendor, node_modules and testdata
// directories are skipped.
func findModuleRootInTree(root string) (string, error) {
	level := []string{root}
	for depth := 0; depth <= maxSearchDepth && len(level) > 0; depth++ {
		var next []string
		for _, dir := range level {
			if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
				return dir, nil
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return "", err
			}
			for _, e := range entries {
				if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || skipDirs[e.Name()] {
					continue
				}
				next = append(next, filepath.Join(dir, e.Name()))
			}
		}
		sort.Strings(next)
		level = next
	}
	return "", fmt.Errorf("no go.mod found in %s within %d levels", root, maxSearchDepth)
}

func goModDownload(ctx context.Context, dir string, logger *slog.Logger) error {
	logger.Debug("running go mod download", "dir", dir)
	cmd := exec.CommandContext(ctx, "go", "mod", "download")
	cmd.Dir = dir
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
