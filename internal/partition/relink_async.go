package partition

import "github.com/olehluchkiv/chunksplit/internal/chunkgraph"

// asyncSplitReason is appended to every origin copied onto an async part.
const asyncSplitReason = "async split "

// relinkAsync attaches a lazily loaded part. Every block that loaded an
// affected chunk now loads target first, target inherits the affected
// chunks' origins, and every chunk being split can enumerate target.
// Ancestry is left alone and parts are not chained.
func relinkAsync(host Host, source, target *chunkgraph.Chunk, affected, chunks []*chunkgraph.Chunk) {
	target.ExtraAsync = true

	for _, c := range affected {
		if c == target {
			continue
		}
		for _, b := range c.Blocks() {
			b.InsertFront(target)
			target.AddBlock(b)
		}
	}

	reason := asyncSplitReason + source.String()
	for _, c := range affected {
		for _, o := range c.Origins() {
			target.AddOrigin(o.WithReason(reason))
		}
	}

	for _, c := range chunks {
		host.AddReachable(c, target)
	}
}
