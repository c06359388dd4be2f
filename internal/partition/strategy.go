package partition

import "github.com/olehluchkiv/chunksplit/internal/chunkgraph"

// Segregator decides which modules leave an oversized chunk and how they are
// grouped into new chunks. Implementations must not mutate the graph. An
// empty result leaves the chunk untouched.
type Segregator interface {
	Segregate(chunk *chunkgraph.Chunk, isEntry bool) ([][]*chunkgraph.Module, error)
}

// DefaultSegregator keeps the first MaxModulesPerChunk modules in place and
// extracts the rest. The first extracted group is sized by the chunk's
// threshold (MaxModulesPerEntry for entry chunks), later groups by
// MaxModulesPerChunk.
type DefaultSegregator struct {
	MaxModulesPerChunk int
	MaxModulesPerEntry int
}

// Segregate implements Segregator.
func (s DefaultSegregator) Segregate(chunk *chunkgraph.Chunk, isEntry bool) ([][]*chunkgraph.Module, error) {
	threshold := s.MaxModulesPerChunk
	if isEntry {
		threshold = s.MaxModulesPerEntry
	}

	modules := chunk.Modules()
	if len(modules) <= threshold {
		return nil, nil
	}

	// The head stays in the original chunk, entry or not.
	extractable := Slice(modules, s.MaxModulesPerChunk, len(modules))
	first := Slice(extractable, 0, threshold)
	rest, err := Segregate(Slice(extractable, threshold, len(extractable)), s.MaxModulesPerChunk)
	if err != nil {
		return nil, err
	}

	return dropEmpty(append([][]*chunkgraph.Module{first}, rest...)), nil
}

func dropEmpty(groups [][]*chunkgraph.Module) [][]*chunkgraph.Module {
	out := groups[:0:0]
	for _, g := range groups {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}
