// Package chunkgraph models the module and chunk graph of a bundle build.
//
// A Graph is an arena: it allocates every module, chunk and entrypoint and
// hands out stable identifiers. The many-to-many relation between modules and
// chunks, and the parent/child relation between chunks, are stored on both
// sides and are only written through Graph methods so the two sides cannot
// drift apart.
package chunkgraph

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInconsistent is returned by Validate when a graph invariant does not hold.
var ErrInconsistent = errors.New("chunkgraph: inconsistent graph")

// Graph owns the modules, chunks and entrypoints of one build.
type Graph struct {
	modules       []*Module
	modulesByName map[string]*Module
	chunks        []*Chunk
	entrypoints   []*Entrypoint
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{modulesByName: make(map[string]*Module)}
}

// AddModule returns the module called name, creating it on first use.
func (g *Graph) AddModule(name string) *Module {
	if m, ok := g.modulesByName[name]; ok {
		return m
	}
	m := &Module{id: ModuleID(len(g.modules)), Name: name}
	g.modules = append(g.modules, m)
	g.modulesByName[name] = m
	return m
}

// Module looks up a module by name.
func (g *Graph) Module(name string) (*Module, bool) {
	m, ok := g.modulesByName[name]
	return m, ok
}

// Modules returns every module in creation order.
func (g *Graph) Modules() []*Module { return slices.Clone(g.modules) }

// CreateChunk allocates a new empty chunk. An empty name creates an anonymous chunk.
func (g *Graph) CreateChunk(name string) *Chunk {
	c := &Chunk{id: ChunkID(len(g.chunks)), Name: name}
	g.chunks = append(g.chunks, c)
	return c
}

// Chunks returns a snapshot of every chunk in creation order.
func (g *Graph) Chunks() []*Chunk { return slices.Clone(g.chunks) }

// Chunk returns the first chunk called name.
func (g *Graph) Chunk(name string) (*Chunk, bool) {
	for _, c := range g.chunks {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ChunkByID returns the chunk with the given identifier.
func (g *Graph) ChunkByID(id ChunkID) (*Chunk, bool) {
	if id < 0 || int(id) >= len(g.chunks) {
		return nil, false
	}
	return g.chunks[id], true
}

// AddEntrypoint registers a named load sequence.
func (g *Graph) AddEntrypoint(name string, chunks ...*Chunk) *Entrypoint {
	e := &Entrypoint{Name: name}
	for _, c := range chunks {
		e.Push(c)
	}
	g.entrypoints = append(g.entrypoints, e)
	return e
}

// Entrypoints returns every entrypoint in registration order.
func (g *Graph) Entrypoints() []*Entrypoint { return slices.Clone(g.entrypoints) }

// Connect adds m to c and records the reciprocal membership.
func (g *Graph) Connect(m *Module, c *Chunk) bool {
	added := c.modules.add(m)
	m.chunks.add(c)
	return added
}

// Disconnect removes m from c on both sides. It returns false, and changes
// nothing, when m does not belong to c.
func (g *Graph) Disconnect(m *Module, c *Chunk) bool {
	if !c.modules.remove(m) {
		return false
	}
	m.chunks.remove(c)
	return true
}

// AddParent records parent as a parent of child and child as a child of parent.
func (g *Graph) AddParent(child, parent *Chunk) bool {
	added := child.parents.add(parent)
	parent.children.add(child)
	return added
}

// SetOnlyParent replaces every parent of child with parent. Former parents
// lose child from their children.
func (g *Graph) SetOnlyParent(child, parent *Chunk) {
	for _, old := range child.parents.slice() {
		old.children.remove(child)
	}
	child.parents.reset()
	g.AddParent(child, parent)
}

// AddReachable registers to as enumerable from from without touching ancestry.
func (g *Graph) AddReachable(from, to *Chunk) bool {
	if from == to {
		return false
	}
	return from.reachable.add(to)
}

// Validate checks that the mirrored relations agree and that every
// entrypoint lists parents before their children.
func (g *Graph) Validate() error {
	for _, c := range g.chunks {
		for _, m := range c.modules.items {
			if !m.chunks.has(c) {
				return fmt.Errorf("%w: module %s in chunk %s lacks the back reference", ErrInconsistent, m, c)
			}
		}
		for _, p := range c.parents.items {
			if !p.children.has(c) {
				return fmt.Errorf("%w: chunk %s is not a child of its parent %s", ErrInconsistent, c, p)
			}
		}
		for _, ch := range c.children.items {
			if !ch.parents.has(c) {
				return fmt.Errorf("%w: chunk %s is not a parent of its child %s", ErrInconsistent, c, ch)
			}
		}
	}
	for _, m := range g.modules {
		for _, c := range m.chunks.items {
			if !c.modules.has(m) {
				return fmt.Errorf("%w: chunk %s does not list module %s", ErrInconsistent, c, m)
			}
		}
	}
	for _, e := range g.entrypoints {
		for i, c := range e.chunks {
			for _, p := range c.parents.items {
				if j := slices.Index(e.chunks, p); j > i {
					return fmt.Errorf("%w: entrypoint %s loads %s before its parent %s", ErrInconsistent, e.Name, c, p)
				}
			}
		}
	}
	return nil
}
