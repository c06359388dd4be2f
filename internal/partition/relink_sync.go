package partition

import "github.com/olehluchkiv/chunksplit/internal/chunkgraph"

// relinkSync makes target the only parent of every affected chunk and loads
// it right before them in each entrypoint. Parts split from the same source
// are chained, previous before target, so they load in extraction order.
func relinkSync(host Host, target, previous *chunkgraph.Chunk, affected []*chunkgraph.Chunk) {
	if previous != nil {
		host.AddParent(target, previous)
	}
	for _, c := range affected {
		host.SetOnlyParent(c, target)
		for _, e := range c.Entrypoints() {
			e.InsertBefore(c, target)
		}
	}
}

// checkParents fails when a chunk that a synchronous split could affect has
// a parent outside chunks. Candidates are the modules the segregator would
// extract from the unmodified graph: removals only shrink chunks, so a later
// extraction never reaches past that set.
func checkParents(chunks []*chunkgraph.Chunk, seg Segregator) error {
	inSet := make(map[*chunkgraph.Chunk]bool, len(chunks))
	for _, c := range chunks {
		inSet[c] = true
	}

	candidates := make(map[*chunkgraph.Module]bool)
	for _, c := range chunks {
		if !c.IsInitial() {
			continue
		}
		groups, err := seg.Segregate(c, c.HasRuntime())
		if err != nil {
			return err
		}
		for _, g := range groups {
			for _, m := range g {
				candidates[m] = true
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	for _, c := range chunks {
		if !holdsAny(c, candidates) {
			continue
		}
		for _, p := range c.Parents() {
			if !inSet[p] {
				return &ExternalParentError{Chunk: c, Parent: p}
			}
		}
	}
	return nil
}

func holdsAny(c *chunkgraph.Chunk, modules map[*chunkgraph.Module]bool) bool {
	for _, m := range c.Modules() {
		if modules[m] {
			return true
		}
	}
	return false
}
