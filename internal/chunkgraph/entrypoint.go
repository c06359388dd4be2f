package chunkgraph

import "slices"

// Entrypoint is the ordered load sequence of one startup bundle. The order
// must respect the parent/child edges among its chunks.
type Entrypoint struct {
	Name   string
	chunks []*Chunk
}

// Chunks returns the load sequence.
func (e *Entrypoint) Chunks() []*Chunk { return slices.Clone(e.chunks) }

// Contains reports whether c is part of the load sequence.
func (e *Entrypoint) Contains(c *Chunk) bool { return slices.Contains(e.chunks, c) }

// Push appends c to the load sequence unless it is already present.
func (e *Entrypoint) Push(c *Chunk) bool {
	if e.Contains(c) {
		return false
	}
	e.chunks = append(e.chunks, c)
	c.joinEntrypoint(e)
	return true
}

// InsertBefore makes c load before existing. A c already loaded earlier stays
// where it is; a c loaded later is moved to immediately before existing, so
// the sequence never holds duplicates. It returns false and changes nothing
// when existing is not in the sequence.
func (e *Entrypoint) InsertBefore(existing, c *Chunk) bool {
	if existing == c || !e.Contains(existing) {
		return false
	}
	if i := slices.Index(e.chunks, c); i >= 0 {
		if i < slices.Index(e.chunks, existing) {
			return true
		}
		e.chunks = slices.Delete(e.chunks, i, i+1)
	}
	at := slices.Index(e.chunks, existing)
	e.chunks = slices.Insert(e.chunks, at, c)
	c.joinEntrypoint(e)
	return true
}
