// Package goload builds a chunk graph from the package import graph of a Go
// module. Every main package becomes an entrypoint whose single chunk holds
// the packages it links, dependencies first.
package goload

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
)

// FallbackChunk names the chunk used when the module has no main package.
const FallbackChunk = "module"

// Options controls loading.
type Options struct {
	Filter        string // package path prefix; other packages are skipped
	IncludeStdlib bool
}

// Result is a loaded module.
type Result struct {
	Graph      *chunkgraph.Graph
	ModulePath string
	Packages   int // packages loaded from the module itself
}

// Load loads the packages under dir and builds their chunk graph.
func Load(ctx context.Context, dir string, opts Options, logger *slog.Logger) (*Result, error) {
	logger = logger.With("component", "goload")
	cfg := &packages.Config{
		Mode:    packages.NeedName | packages.NeedImports | packages.NeedDeps | packages.NeedFiles | packages.NeedModule,
		Dir:     dir,
		Context: ctx,
	}

	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	logger.Info("packages loaded", "packages_count", len(pkgs))

	// Log packages with errors but continue
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			logger.Warn("package load error", "package", pkg.PkgPath, "error", e.Msg)
		}
	}

	res := &Result{Graph: chunkgraph.New(), Packages: len(pkgs)}
	for _, pkg := range pkgs {
		if pkg.Module != nil && pkg.Module.Main {
			res.ModulePath = pkg.Module.Path
			break
		}
	}

	var mains []*packages.Package
	for _, pkg := range pkgs {
		if pkg.Name == "main" {
			mains = append(mains, pkg)
		}
	}
	sort.Slice(mains, func(i, j int) bool { return mains[i].PkgPath < mains[j].PkgPath })

	if len(mains) == 0 {
		logger.Info("no main packages, using a single chunk", "chunk", FallbackChunk)
		addEntry(res.Graph, FallbackChunk, pkgs, opts)
		return res, nil
	}

	names := chunkNames(mains)
	for _, m := range mains {
		c := addEntry(res.Graph, names[m.PkgPath], []*packages.Package{m}, opts)
		logger.Debug("entry chunk", "chunk", c.Name, "package", m.PkgPath, "modules", c.ModuleCount())
	}
	return res, nil
}

// addEntry creates an entrypoint called name whose chunk holds roots and
// everything they import, in dependency order.
func addEntry(g *chunkgraph.Graph, name string, roots []*packages.Package, opts Options) *chunkgraph.Chunk {
	c := g.CreateChunk(name)
	packages.Visit(roots, nil, func(pkg *packages.Package) {
		if !keep(pkg.PkgPath, opts) {
			return
		}
		g.Connect(g.AddModule(pkg.PkgPath), c)
	})
	g.AddEntrypoint(name, c)
	return c
}

func keep(pkgPath string, opts Options) bool {
	if !opts.IncludeStdlib && isStdlib(pkgPath) {
		return false
	}
	if opts.Filter != "" && !isStdlib(pkgPath) && !strings.HasPrefix(pkgPath, opts.Filter) {
		return false
	}
	return true
}

// chunkNames names each main package after its last path element, falling
// back to the full import path when two mains share it.
func chunkNames(mains []*packages.Package) map[string]string {
	count := make(map[string]int, len(mains))
	for _, m := range mains {
		count[path.Base(m.PkgPath)]++
	}
	names := make(map[string]string, len(mains))
	for _, m := range mains {
		base := path.Base(m.PkgPath)
		if count[base] > 1 {
			names[m.PkgPath] = m.PkgPath
		} else {
			names[m.PkgPath] = base
		}
	}
	return names
}

func isStdlib(pkgPath string) bool {
	// Stdlib packages have no dot in the first path element
	first, _, _ := strings.Cut(pkgPath, "/")
	return !strings.Contains(first, ".")
}
