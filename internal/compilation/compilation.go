// Package compilation models one build session over a chunk graph: the
// optimization hooks plugins tap into, the optimize loop that drives them,
// and per-session markers.
package compilation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
	"github.com/olehluchkiv/chunksplit/internal/logging"
)

// DefaultMaxIterations bounds how often a hook is re-run while its handlers
// keep reporting changes.
const DefaultMaxIterations = 100

var (
	// ErrOptimizeLoop is returned when handlers keep reporting changes past
	// the iteration limit.
	ErrOptimizeLoop = errors.New("compilation: optimize loop did not settle")

	// ErrSealed is returned when a sealed compilation is sealed again or
	// tapped after sealing.
	ErrSealed = errors.New("compilation: already sealed")
)

// Hook names an optimization stage.
type Hook string

const (
	HookOptimizeChunks          Hook = "optimize-chunks"
	HookOptimizeExtractedChunks Hook = "optimize-extracted-chunks"
)

// hookOrder is the order Seal runs hooks in.
var hookOrder = []Hook{HookOptimizeChunks, HookOptimizeExtractedChunks}

// Handler runs on a hook. It reports whether it changed the graph; a change
// makes Seal run the hook again.
type Handler func(ctx context.Context, c *Compilation) (changed bool, err error)

// Phase is the lifecycle stage of a compilation.
type Phase int

const (
	PhaseBuilding Phase = iota
	PhaseOptimizing
	PhaseSealed
)

func (p Phase) String() string {
	switch p {
	case PhaseBuilding:
		return "building"
	case PhaseOptimizing:
		return "optimizing"
	case PhaseSealed:
		return "sealed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type tap struct {
	name    string
	handler Handler
}

// Compilation is a single build session.
type Compilation struct {
	ID            uuid.UUID
	Graph         *chunkgraph.Graph
	MaxIterations int

	phase Phase
	marks map[string]struct{}
	taps  map[Hook][]tap
}

// New starts a session over g.
func New(g *chunkgraph.Graph) *Compilation {
	return &Compilation{
		ID:            uuid.New(),
		Graph:         g,
		MaxIterations: DefaultMaxIterations,
		marks:         make(map[string]struct{}),
		taps:          make(map[Hook][]tap),
	}
}

// Phase returns the current lifecycle stage.
func (c *Compilation) Phase() Phase { return c.phase }

// Tap registers handler on hook under name. Handlers run in registration order.
func (c *Compilation) Tap(hook Hook, name string, handler Handler) error {
	if c.phase == PhaseSealed {
		return fmt.Errorf("tap %s on %s: %w", name, hook, ErrSealed)
	}
	c.taps[hook] = append(c.taps[hook], tap{name: name, handler: handler})
	return nil
}

// MarkOnce records key and reports whether this is the first time it was
// seen in this compilation.
func (c *Compilation) MarkOnce(key string) bool {
	if _, ok := c.marks[key]; ok {
		return false
	}
	c.marks[key] = struct{}{}
	return true
}

// Seal runs the optimization hooks. Each hook is re-run until none of its
// handlers reports a change. The graph is validated once the loop settles.
func (c *Compilation) Seal(ctx context.Context) error {
	if c.phase == PhaseSealed {
		return ErrSealed
	}
	logger := logging.FromContext(ctx).With("component", "compilation", "compilation", c.ID.String())
	c.phase = PhaseOptimizing
	logger.Debug("optimizing", "chunks", len(c.Graph.Chunks()))

	for _, hook := range hookOrder {
		if err := c.runHook(ctx, hook); err != nil {
			return err
		}
	}

	if err := c.Graph.Validate(); err != nil {
		return fmt.Errorf("seal: %w", err)
	}
	c.phase = PhaseSealed
	logger.Info("compilation sealed", "chunks", len(c.Graph.Chunks()), "entrypoints", len(c.Graph.Entrypoints()))
	return nil
}

func (c *Compilation) runHook(ctx context.Context, hook Hook) error {
	taps := c.taps[hook]
	if len(taps) == 0 {
		return nil
	}
	limit := c.MaxIterations
	if limit <= 0 {
		limit = DefaultMaxIterations
	}

	for range limit {
		changed := false
		for _, t := range taps {
			ok, err := t.handler(ctx, c)
			if err != nil {
				return fmt.Errorf("%s (%s): %w", hook, t.name, err)
			}
			changed = changed || ok
		}
		if !changed {
			return nil
		}
	}
	return fmt.Errorf("%s: %w after %d iterations", hook, ErrOptimizeLoop, limit)
}
