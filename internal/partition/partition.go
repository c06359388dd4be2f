// Package partition rebalances oversized chunks of a chunk graph into
// bounded-size parts while keeping load order intact.
//
// A pass takes the chunks to consider, asks a Segregator which modules leave
// each oversized chunk, creates one chunk per group and relinks the graph:
// initial chunks get the new part as their only parent and load it first in
// every entrypoint; lazily loaded chunks get the part attached to the blocks
// that load them.
//
// The pass is single-threaded and not re-entrant. Configuration and the
// parent precondition are checked before the first mutation, so a failing
// pass leaves the graph as it found it.
package partition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
	"github.com/olehluchkiv/chunksplit/internal/logging"
)

// Host is the graph surface a pass mutates. *chunkgraph.Graph implements it.
type Host interface {
	CreateChunk(name string) *chunkgraph.Chunk
	Connect(m *chunkgraph.Module, c *chunkgraph.Chunk) bool
	Disconnect(m *chunkgraph.Module, c *chunkgraph.Chunk) bool
	AddParent(child, parent *chunkgraph.Chunk) bool
	SetOnlyParent(child, parent *chunkgraph.Chunk)
	AddReachable(from, to *chunkgraph.Chunk) bool
}

// Phase is the state of a pass.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFiltering
	PhasePerChunkPartition
	PhaseRelinking
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFiltering:
		return "filtering"
	case PhasePerChunkPartition:
		return "per-chunk-partition"
	case PhaseRelinking:
		return "relinking"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// SourceSplit describes the parts created from one source chunk.
type SourceSplit struct {
	Source   *chunkgraph.Chunk
	Async    bool
	Entry    bool
	Parts    []*chunkgraph.Chunk
	Affected []*chunkgraph.Chunk // every chunk that lost a module, deduplicated
}

// Result is the outcome of a pass.
type Result struct {
	Created []*chunkgraph.Chunk
	Splits  []SourceSplit
}

// Changed reports whether the pass created any chunk.
func (r *Result) Changed() bool {
	return r != nil && len(r.Created) > 0
}

type pass struct {
	host   Host
	opts   Options
	seg    Segregator
	phase  Phase
	logger *slog.Logger
}

func (p *pass) enter(next Phase) {
	p.logger.Debug("phase transition", "from", p.phase.String(), "to", next.String())
	p.phase = next
}

// Split partitions the oversized chunks among chunks and returns the chunks it
// created. chunks is treated as a snapshot: chunks created by the pass are
// never split again in the same pass.
func Split(ctx context.Context, host Host, chunks []*chunkgraph.Chunk, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p := &pass{
		host:   host,
		opts:   opts,
		seg:    opts.segregator(),
		logger: logging.FromContext(ctx).With("component", "partition"),
	}

	p.enter(PhaseFiltering)
	toSplit := p.filter(chunks)
	if err := presegregate(toSplit, p.seg); err != nil {
		return nil, err
	}
	if !opts.OverwriteParents {
		if err := checkParents(toSplit, p.seg); err != nil {
			return nil, err
		}
	}

	result := &Result{}
	for _, source := range toSplit {
		split, err := p.splitChunk(source, toSplit)
		if err != nil {
			return result, err
		}
		if len(split.Parts) == 0 {
			continue
		}
		result.Created = append(result.Created, split.Parts...)
		result.Splits = append(result.Splits, split)
	}

	p.enter(PhaseDone)
	p.logger.Info("partitioning finished", "considered", len(toSplit), "split", len(result.Splits), "created", len(result.Created))
	return result, nil
}

// presegregate runs the segregator over every candidate of the unmodified
// graph so a failing segregator aborts the pass before anything moves.
func presegregate(chunks []*chunkgraph.Chunk, seg Segregator) error {
	for _, c := range chunks {
		if _, err := seg.Segregate(c, c.HasRuntime()); err != nil {
			return fmt.Errorf("segregating chunk %s: %w", c, err)
		}
	}
	return nil
}

// filter drops empty chunks and chunks rejected by the filter predicate.
func (p *pass) filter(chunks []*chunkgraph.Chunk) []*chunkgraph.Chunk {
	out := make([]*chunkgraph.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.ModuleCount() == 0 || !p.opts.accepts(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (p *pass) splitChunk(source *chunkgraph.Chunk, toSplit []*chunkgraph.Chunk) (SourceSplit, error) {
	p.enter(PhasePerChunkPartition)
	split := SourceSplit{
		Source: source,
		Async:  !source.IsInitial(),
		Entry:  source.HasRuntime(),
	}

	groups, err := p.seg.Segregate(source, split.Entry)
	if err != nil {
		return split, fmt.Errorf("segregating chunk %s: %w", source, err)
	}
	groups = dropEmpty(groups)
	if len(groups) == 0 {
		return split, nil
	}
	p.logger.Debug("splitting chunk",
		"chunk", source.String(),
		"modules", source.ModuleCount(),
		"groups", len(groups),
		"async", split.Async,
		"entry", split.Entry)

	p.enter(PhaseRelinking)
	seen := make(map[*chunkgraph.Chunk]bool)
	var previous *chunkgraph.Chunk
	for idx, group := range groups {
		target := p.host.CreateChunk(p.opts.partName(source, idx))
		affected := reown(p.host, group, toSplit, target)

		if split.Async {
			relinkAsync(p.host, source, target, affected, toSplit)
		} else {
			relinkSync(p.host, target, previous, affected)
		}
		previous = target

		split.Parts = append(split.Parts, target)
		for _, c := range affected {
			if !seen[c] {
				seen[c] = true
				split.Affected = append(split.Affected, c)
			}
		}
		p.logger.Debug("created part",
			"source", source.String(),
			"part", target.String(),
			"modules", len(group),
			"affected", len(affected))
	}
	return split, nil
}
