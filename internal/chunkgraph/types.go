package chunkgraph

import (
	"fmt"
	"slices"
)

// ModuleID identifies a module within one Graph.
type ModuleID int

// ChunkID identifies a chunk within one Graph.
type ChunkID int

// Module is a unit of source content. Its chunk membership mirrors
// Chunk.Modules and is only changed through Graph.Connect and Graph.Disconnect.
type Module struct {
	id     ModuleID
	Name   string
	chunks uniqueList[*Chunk]
}

// ID returns the module's stable identifier.
func (m *Module) ID() ModuleID { return m.id }

// Chunks returns the chunks that contain the module, in the order they were joined.
func (m *Module) Chunks() []*Chunk { return m.chunks.slice() }

// InChunk reports whether the module belongs to c.
func (m *Module) InChunk(c *Chunk) bool { return m.chunks.has(c) }

func (m *Module) String() string { return m.Name }

// ExternalModule returns a module no graph owns, for origins that point at
// code outside the build. Its ID is -1 and it must not be connected to a chunk.
func ExternalModule(name string) *Module { return &Module{id: -1, Name: name} }

// Origin explains why a chunk exists.
type Origin struct {
	Module  *Module // may be nil for synthetic chunks
	Loc     string
	Reasons []string
}

// WithReason returns a copy of o with reason appended. The reason slice of o
// is never shared with the copy.
func (o Origin) WithReason(reason string) Origin {
	reasons := make([]string, 0, len(o.Reasons)+1)
	reasons = append(reasons, o.Reasons...)
	o.Reasons = append(reasons, reason)
	return o
}

// Block is one site where a lazy chunk load is triggered, such as a dynamic
// import. Its chunk list never contains duplicates.
type Block struct {
	Origin *Module
	chunks uniqueList[*Chunk]
}

// NewBlock creates a block owned by origin that loads chunks in order.
func NewBlock(origin *Module, chunks ...*Chunk) *Block {
	b := &Block{Origin: origin}
	for _, c := range chunks {
		b.chunks.add(c)
	}
	return b
}

// Chunks returns the chunks loaded when the block executes.
func (b *Block) Chunks() []*Chunk { return b.chunks.slice() }

// HasChunk reports whether the block loads c.
func (b *Block) HasChunk(c *Chunk) bool { return b.chunks.has(c) }

// InsertFront makes c the first chunk loaded by the block. It is a no-op
// returning false when the block already references c.
func (b *Block) InsertFront(c *Chunk) bool { return b.chunks.insertFront(c) }

// AddChunk appends c unless the block already references it.
func (b *Block) AddChunk(c *Chunk) bool { return b.chunks.add(c) }

// Chunk is a deliverable grouping of modules.
//
// Initial-ness and runtime ownership are derived from entrypoint membership:
// a chunk is initial when any entrypoint loads it, and it carries the runtime
// when it is the first chunk of its first entrypoint.
type Chunk struct {
	id   ChunkID
	Name string
	// ExtraAsync marks lazy chunks created by splitting rather than by the host.
	ExtraAsync bool

	modules     uniqueList[*Module]
	parents     uniqueList[*Chunk]
	children    uniqueList[*Chunk]
	reachable   uniqueList[*Chunk]
	blocks      uniqueList[*Block]
	origins     []Origin
	entrypoints []*Entrypoint
}

// ID returns the chunk's stable identifier.
func (c *Chunk) ID() ChunkID { return c.id }

// Modules returns the chunk's modules in insertion order.
func (c *Chunk) Modules() []*Module { return c.modules.slice() }

// ModuleCount returns the number of modules in the chunk.
func (c *Chunk) ModuleCount() int { return c.modules.len() }

// ContainsModule reports whether m belongs to the chunk.
func (c *Chunk) ContainsModule(m *Module) bool { return c.modules.has(m) }

// Parents returns the chunks that must load before this one.
func (c *Chunk) Parents() []*Chunk { return c.parents.slice() }

// Children returns the chunks that list this chunk as a parent.
func (c *Chunk) Children() []*Chunk { return c.children.slice() }

// Reachable returns lazy chunks registered for enumeration from this chunk
// without being part of its ancestry.
func (c *Chunk) Reachable() []*Chunk { return c.reachable.slice() }

// Blocks returns the blocks that trigger loading this chunk.
func (c *Chunk) Blocks() []*Block { return c.blocks.slice() }

// AddBlock registers b on the chunk. Registering the same block twice is a no-op.
func (c *Chunk) AddBlock(b *Block) bool { return c.blocks.add(b) }

// Origins returns the chunk's diagnostic provenance records.
func (c *Chunk) Origins() []Origin { return slices.Clone(c.origins) }

// AddOrigin appends o to the chunk's origins.
func (c *Chunk) AddOrigin(o Origin) { c.origins = append(c.origins, o) }

// Entrypoints returns the entrypoints whose load sequence includes the chunk.
func (c *Chunk) Entrypoints() []*Entrypoint { return slices.Clone(c.entrypoints) }

// IsInitial reports whether the chunk loads unconditionally at startup.
func (c *Chunk) IsInitial() bool { return len(c.entrypoints) > 0 }

// HasRuntime reports whether the chunk carries the bootstrap code of an entrypoint.
func (c *Chunk) HasRuntime() bool {
	if len(c.entrypoints) == 0 {
		return false
	}
	first := c.entrypoints[0].chunks
	return len(first) > 0 && first[0] == c
}

// String returns the chunk name, or "#<id>" for anonymous chunks.
func (c *Chunk) String() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("#%d", c.id)
}

func (c *Chunk) joinEntrypoint(e *Entrypoint) {
	if !slices.Contains(c.entrypoints, e) {
		c.entrypoints = append(c.entrypoints, e)
	}
}
