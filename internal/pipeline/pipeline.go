// Package pipeline runs the resolve, load, partition and render steps shared
// by the split and serve commands.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
	"github.com/olehluchkiv/chunksplit/internal/compilation"
	"github.com/olehluchkiv/chunksplit/internal/config"
	"github.com/olehluchkiv/chunksplit/internal/diagram"
	"github.com/olehluchkiv/chunksplit/internal/goload"
	"github.com/olehluchkiv/chunksplit/internal/logging"
	"github.com/olehluchkiv/chunksplit/internal/manifest"
	"github.com/olehluchkiv/chunksplit/internal/partition"
	"github.com/olehluchkiv/chunksplit/internal/plugin"
	"github.com/olehluchkiv/chunksplit/internal/resolver"
)

// Outcome is the result of one run.
type Outcome struct {
	Source        resolver.Source
	Graph         *chunkgraph.Graph
	CompilationID string
	ChunksBefore  int
	BeforeSlides  []diagram.Slide
	Result        *partition.Result
}

// Run executes the full resolve → load → partition pipeline for input.
func Run(ctx context.Context, input string, cfg *config.Config, logger *slog.Logger) (*Outcome, func(), error) {
	logger = logger.With("component", "pipeline")
	ctx = logging.WithLogger(ctx, logger)

	// Step 1: Resolve input to a manifest or module root.
	logger.Info("resolving input", "input", input)
	src, cleanup, err := resolver.Resolve(ctx, input, logger)
	if err != nil {
		return nil, func() {}, fmt.Errorf("resolve: %w", err)
	}

	// Step 2: Load the chunk graph.
	g, err := load(ctx, src, cfg, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("load: %w", err)
	}
	out := &Outcome{
		Source:       src,
		Graph:        g,
		ChunksBefore: len(g.Chunks()),
		BeforeSlides: diagram.BuildSlides(g, diagram.DefaultDiagramOptions(), diagram.DefaultSlideOptions()),
	}
	logger.Info("graph loaded",
		"kind", src.Kind.String(),
		"chunks", out.ChunksBefore,
		"modules", len(g.Modules()),
		"entrypoints", len(g.Entrypoints()))

	// Step 3: Partition inside a compilation.
	comp := compilation.New(g)
	out.CompilationID = comp.ID.String()
	p := plugin.New(cfg.PartitionOptions())
	if err := p.Apply(comp); err != nil {
		cleanup()
		return nil, func() {}, err
	}
	if err := comp.Seal(ctx); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("partition: %w", err)
	}
	out.Result = &partition.Result{}
	for _, res := range p.Results() {
		out.Result.Created = append(out.Result.Created, res.Created...)
		out.Result.Splits = append(out.Result.Splits, res.Splits...)
	}

	logger.Info("partitioning complete",
		"created", len(out.Result.Created),
		"split", len(out.Result.Splits),
		"chunks", len(g.Chunks()))
	return out, cleanup, nil
}

func load(ctx context.Context, src resolver.Source, cfg *config.Config, logger *slog.Logger) (*chunkgraph.Graph, error) {
	switch src.Kind {
	case resolver.KindManifest:
		return manifest.Load(src.Path)
	case resolver.KindGoModule:
		res, err := goload.Load(ctx, src.Path, goload.Options{
			Filter:        cfg.Filter,
			IncludeStdlib: cfg.IncludeStdlib,
		}, logger)
		if err != nil {
			return nil, err
		}
		return res.Graph, nil
	default:
		return nil, fmt.Errorf("unsupported source kind %s", src.Kind)
	}
}

// Highlight returns the IDs of the chunks the run created.
func (o *Outcome) Highlight() map[chunkgraph.ChunkID]bool {
	ids := make(map[chunkgraph.ChunkID]bool, len(o.Result.Created))
	for _, c := range o.Result.Created {
		ids[c.ID()] = true
	}
	return ids
}

// Mermaid renders the partitioned graph with created parts highlighted.
func (o *Outcome) Mermaid(includeInit bool) string {
	opts := diagram.DefaultDiagramOptions()
	opts.IncludeInit = includeInit
	opts.Highlight = o.Highlight()
	return diagram.GenerateMermaid(o.Graph, opts)
}

// Interactive prepares the viewer data.
func (o *Outcome) Interactive() diagram.InteractiveData {
	opts := diagram.DefaultDiagramOptions()
	opts.Highlight = o.Highlight()
	return diagram.InteractiveData{
		Before:      o.BeforeSlides,
		After:       diagram.BuildSlides(o.Graph, opts, diagram.DefaultSlideOptions()),
		Chunks:      diagram.PrepareChunks(o.Graph, opts.Highlight),
		RepoAddress: o.Source.Input,
		Created:     len(o.Result.Created),
	}
}
