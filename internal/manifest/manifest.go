// Package manifest reads and writes chunk graphs as YAML or JSON documents.
//
// Chunks are referenced by name. Anonymous chunks are referenced as "#<n>",
// where n is the chunk's position in the document. Blocks that load more
// than one chunk carry an id so every chunk listing the block shares it.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
)

var (
	// ErrUnknownChunk is returned when a reference names no chunk.
	ErrUnknownChunk = errors.New("manifest: unknown chunk")

	// ErrDuplicateChunk is returned when two chunks share a name.
	ErrDuplicateChunk = errors.New("manifest: duplicate chunk name")
)

// Manifest is the serialized form of a chunk graph.
type Manifest struct {
	Chunks      []Chunk      `yaml:"chunks" json:"chunks"`
	Entrypoints []Entrypoint `yaml:"entrypoints,omitempty" json:"entrypoints,omitempty"`
}

// Chunk is one serialized chunk.
type Chunk struct {
	Name       string   `yaml:"name,omitempty" json:"name,omitempty"`
	Modules    []string `yaml:"modules,omitempty" json:"modules,omitempty"`
	Parents    []string `yaml:"parents,omitempty" json:"parents,omitempty"`
	Blocks     []Block  `yaml:"blocks,omitempty" json:"blocks,omitempty"`
	Origins    []Origin `yaml:"origins,omitempty" json:"origins,omitempty"`
	ExtraAsync bool     `yaml:"extraAsync,omitempty" json:"extraAsync,omitempty"`
	Reachable  []string `yaml:"reachable,omitempty" json:"reachable,omitempty"`
}

// Block is an import site that loads Chunks in order.
type Block struct {
	ID     string   `yaml:"id,omitempty" json:"id,omitempty"`
	Origin string   `yaml:"origin,omitempty" json:"origin,omitempty"`
	Chunks []string `yaml:"chunks" json:"chunks"`
}

// Origin records why a chunk exists.
type Origin struct {
	Module  string   `yaml:"module,omitempty" json:"module,omitempty"`
	Loc     string   `yaml:"loc,omitempty" json:"loc,omitempty"`
	Reasons []string `yaml:"reasons,omitempty" json:"reasons,omitempty"`
}

// Entrypoint is a named load sequence.
type Entrypoint struct {
	Name   string   `yaml:"name" json:"name"`
	Chunks []string `yaml:"chunks" json:"chunks"`
}

// Load reads a manifest file and builds its graph. Files ending in .json are
// decoded as JSON, everything else as YAML.
func Load(path string) (*chunkgraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	m, err := Decode(f, isJSON(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return m.Build()
}

// Decode parses a manifest document.
func Decode(r io.Reader, asJSON bool) (*Manifest, error) {
	var m Manifest
	if asJSON {
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
		return &m, nil
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	return &m, nil
}

// Save writes g to path, as JSON when path ends in .json and YAML otherwise.
func Save(path string, g *chunkgraph.Graph) error {
	data, err := Marshal(FromGraph(g), isJSON(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Marshal encodes m.
func Marshal(m *Manifest, asJSON bool) ([]byte, error) {
	if asJSON {
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(data, '\n'), nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// anonRef is the reference used for the chunk at index i when it has no name.
func anonRef(i int) string { return "#" + strconv.Itoa(i) }

// Build creates a graph from m. Chunks are created in document order, so
// chunk IDs match their position.
func (m *Manifest) Build() (*chunkgraph.Graph, error) {
	g := chunkgraph.New()
	refs := make(map[string]*chunkgraph.Chunk, len(m.Chunks))
	chunks := make([]*chunkgraph.Chunk, len(m.Chunks))

	for i, mc := range m.Chunks {
		c := g.CreateChunk(mc.Name)
		c.ExtraAsync = mc.ExtraAsync
		chunks[i] = c
		if mc.Name != "" {
			if _, dup := refs[mc.Name]; dup {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateChunk, mc.Name)
			}
			refs[mc.Name] = c
		}
		refs[anonRef(i)] = c
		for _, name := range mc.Modules {
			g.Connect(g.AddModule(name), c)
		}
	}
	lookup := func(ref string) (*chunkgraph.Chunk, error) {
		c, ok := refs[ref]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownChunk, ref)
		}
		return c, nil
	}

	// Origins may name modules outside every chunk; those stay out of the graph.
	external := make(map[string]*chunkgraph.Module)
	module := func(name string) *chunkgraph.Module {
		if name == "" {
			return nil
		}
		if mod, ok := g.Module(name); ok {
			return mod
		}
		mod, ok := external[name]
		if !ok {
			mod = chunkgraph.ExternalModule(name)
			external[name] = mod
		}
		return mod
	}

	blocks := make(map[string]*chunkgraph.Block)
	for i, mc := range m.Chunks {
		c := chunks[i]
		for _, ref := range mc.Parents {
			p, err := lookup(ref)
			if err != nil {
				return nil, fmt.Errorf("chunk %s parents: %w", c, err)
			}
			g.AddParent(c, p)
		}
		for _, ref := range mc.Reachable {
			r, err := lookup(ref)
			if err != nil {
				return nil, fmt.Errorf("chunk %s reachable: %w", c, err)
			}
			g.AddReachable(c, r)
		}
		for _, mo := range mc.Origins {
			c.AddOrigin(chunkgraph.Origin{Module: module(mo.Module), Loc: mo.Loc, Reasons: mo.Reasons})
		}
		for _, mb := range mc.Blocks {
			b, err := buildBlock(mb, blocks, module, lookup)
			if err != nil {
				return nil, fmt.Errorf("chunk %s blocks: %w", c, err)
			}
			c.AddBlock(b)
		}
	}

	for _, me := range m.Entrypoints {
		e := g.AddEntrypoint(me.Name)
		for _, ref := range me.Chunks {
			c, err := lookup(ref)
			if err != nil {
				return nil, fmt.Errorf("entrypoint %s: %w", me.Name, err)
			}
			e.Push(c)
		}
	}
	return g, nil
}

func buildBlock(mb Block, byID map[string]*chunkgraph.Block, module func(string) *chunkgraph.Module, lookup func(string) (*chunkgraph.Chunk, error)) (*chunkgraph.Block, error) {
	if mb.ID != "" {
		if b, ok := byID[mb.ID]; ok {
			return b, nil
		}
	}
	b := chunkgraph.NewBlock(module(mb.Origin))
	for _, ref := range mb.Chunks {
		c, err := lookup(ref)
		if err != nil {
			return nil, err
		}
		b.AddChunk(c)
	}
	if mb.ID != "" {
		byID[mb.ID] = b
	}
	return b, nil
}

// FromGraph serializes g. Chunks are written in ID order.
func FromGraph(g *chunkgraph.Graph) *Manifest {
	chunks := g.Chunks()
	pos := make(map[*chunkgraph.Chunk]int, len(chunks))
	for i, c := range chunks {
		pos[c] = i
	}
	ref := func(c *chunkgraph.Chunk) string {
		if c.Name != "" {
			return c.Name
		}
		return anonRef(pos[c])
	}
	refs := func(cs []*chunkgraph.Chunk) []string {
		if len(cs) == 0 {
			return nil
		}
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = ref(c)
		}
		return out
	}

	// Blocks listed by more than one chunk get an id so they stay shared.
	owners := make(map[*chunkgraph.Block]int)
	for _, c := range chunks {
		for _, b := range c.Blocks() {
			owners[b]++
		}
	}
	blockIDs := make(map[*chunkgraph.Block]string)

	m := &Manifest{Chunks: make([]Chunk, 0, len(chunks))}
	for _, c := range chunks {
		mc := Chunk{
			Name:       c.Name,
			Parents:    refs(c.Parents()),
			ExtraAsync: c.ExtraAsync,
			Reachable:  refs(c.Reachable()),
		}
		for _, mod := range c.Modules() {
			mc.Modules = append(mc.Modules, mod.Name)
		}
		for _, o := range c.Origins() {
			mo := Origin{Loc: o.Loc, Reasons: o.Reasons}
			if o.Module != nil {
				mo.Module = o.Module.Name
			}
			mc.Origins = append(mc.Origins, mo)
		}
		for _, b := range c.Blocks() {
			mb := Block{Chunks: refs(b.Chunks())}
			if b.Origin != nil {
				mb.Origin = b.Origin.Name
			}
			if owners[b] > 1 {
				id, ok := blockIDs[b]
				if !ok {
					id = "b" + strconv.Itoa(len(blockIDs))
					blockIDs[b] = id
				}
				mb.ID = id
			}
			mc.Blocks = append(mc.Blocks, mb)
		}
		m.Chunks = append(m.Chunks, mc)
	}

	for _, e := range g.Entrypoints() {
		m.Entrypoints = append(m.Entrypoints, Entrypoint{Name: e.Name, Chunks: refs(e.Chunks())})
	}
	return m
}
