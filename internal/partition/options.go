package partition

import (
	"fmt"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
)

// Defaults applied by DefaultOptions.
const (
	DefaultMaxModulesPerChunk = 100
	DefaultMaxModulesPerEntry = 1
)

// PartNameFunc names the chunk created for the index-th extracted group of
// source. An empty name creates an anonymous chunk.
type PartNameFunc func(source *chunkgraph.Chunk, index int) string

// FilterFunc selects the chunks a pass may split.
type FilterFunc func(chunk *chunkgraph.Chunk) bool

// Options controls a partitioning pass.
type Options struct {
	MaxModulesPerChunk int // max modules kept in, or extracted from, a chunk; must be >= 1
	MaxModulesPerEntry int // size of the first group extracted from an entry chunk; 0 keeps none

	PartName PartNameFunc // defaults to DefaultPartName
	Filter   FilterFunc   // nil accepts every chunk

	// Segregator defaults to a DefaultSegregator built from the limits above.
	// Split runs it over every candidate before the first mutation, so an
	// error fails the pass with the graph untouched. A segregator that only
	// fails once an earlier source has shrunk the chunk still leaves the
	// sources before it split.
	Segregator Segregator

	// OverwriteParents allows a synchronous split to replace parents that
	// are not among the chunks being split. Off by default.
	OverwriteParents bool
}

// DefaultOptions returns the options the chunk splitting plugin ships with.
func DefaultOptions() Options {
	return Options{
		MaxModulesPerChunk: DefaultMaxModulesPerChunk,
		MaxModulesPerEntry: DefaultMaxModulesPerEntry,
		PartName:           DefaultPartName,
	}
}

// DefaultPartName names parts "<source>-part-<n>" with n starting at 1.
// Parts of anonymous chunks stay anonymous.
func DefaultPartName(source *chunkgraph.Chunk, index int) string {
	if source.Name == "" {
		return ""
	}
	return fmt.Sprintf("%s-part-%d", source.Name, index+1)
}

// Validate reports configuration errors. Split calls it before touching the graph.
func (o Options) Validate() error {
	if o.MaxModulesPerChunk <= 0 {
		return fmt.Errorf("%w: maxModulesPerChunk must be greater than or equal to 1, got %d",
			ErrInvalidConfiguration, o.MaxModulesPerChunk)
	}
	if o.MaxModulesPerEntry < 0 {
		return fmt.Errorf("%w: maxModulesPerEntry must not be negative, got %d",
			ErrInvalidConfiguration, o.MaxModulesPerEntry)
	}
	return nil
}

func (o Options) segregator() Segregator {
	if o.Segregator != nil {
		return o.Segregator
	}
	return DefaultSegregator{
		MaxModulesPerChunk: o.MaxModulesPerChunk,
		MaxModulesPerEntry: o.MaxModulesPerEntry,
	}
}

func (o Options) partName(source *chunkgraph.Chunk, index int) string {
	if o.PartName == nil {
		return DefaultPartName(source, index)
	}
	return o.PartName(source, index)
}

func (o Options) accepts(c *chunkgraph.Chunk) bool {
	return o.Filter == nil || o.Filter(c)
}
