package partition

import "github.com/olehluchkiv/chunksplit/internal/chunkgraph"

// reown moves group into target. Each module is removed from every chunk of
// chunks that holds it; the chunks that actually lost a module are returned
// in the order they appear in chunks.
func reown(host Host, group []*chunkgraph.Module, chunks []*chunkgraph.Chunk, target *chunkgraph.Chunk) []*chunkgraph.Chunk {
	lost := make(map[*chunkgraph.Chunk]bool)
	for _, m := range group {
		for _, c := range chunks {
			if host.Disconnect(m, c) {
				lost[c] = true
			}
		}
	}

	affected := make([]*chunkgraph.Chunk, 0, len(lost))
	for _, c := range chunks {
		if lost[c] {
			affected = append(affected, c)
			delete(lost, c) // chunks may repeat in the input
		}
	}

	for _, m := range group {
		host.Connect(m, target)
	}
	return affected
}
