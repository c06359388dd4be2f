// Package plugin connects the partitioner to a compilation's optimize hooks.
package plugin

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/olehluchkiv/chunksplit/internal/compilation"
	"github.com/olehluchkiv/chunksplit/internal/logging"
	"github.com/olehluchkiv/chunksplit/internal/partition"
)

// Name is the tap name the plugin registers under.
const Name = "ChunkSplittingPlugin"

// ChunkSplitting runs one partitioning pass per compilation. Each instance
// has its own identity, so two instances applied to the same compilation
// each run once.
type ChunkSplitting struct {
	Options partition.Options

	identity string
	results  []*partition.Result
}

// New returns a plugin configured with opts.
func New(opts partition.Options) *ChunkSplitting {
	return &ChunkSplitting{
		Options:  opts,
		identity: Name + "/" + uuid.NewString(),
	}
}

// Apply registers the plugin on both optimize hooks of c.
func (p *ChunkSplitting) Apply(c *compilation.Compilation) error {
	for _, hook := range []compilation.Hook{
		compilation.HookOptimizeChunks,
		compilation.HookOptimizeExtractedChunks,
	} {
		if err := c.Tap(hook, Name, p.handle); err != nil {
			return err
		}
	}
	return nil
}

// Results returns the outcome of every pass the plugin ran, in order.
func (p *ChunkSplitting) Results() []*partition.Result { return p.results }

func (p *ChunkSplitting) handle(ctx context.Context, c *compilation.Compilation) (bool, error) {
	if !c.MarkOnce(p.identity) {
		return false, nil
	}
	logger := logging.FromContext(ctx).With("component", "plugin", "compilation", c.ID.String())
	ctx = logging.WithLogger(ctx, logger)

	res, err := partition.Split(ctx, c.Graph, c.Graph.Chunks(), p.Options)
	if err != nil {
		return false, fmt.Errorf("chunk splitting: %w", err)
	}
	p.results = append(p.results, res)
	return res.Changed(), nil
}
