package diagram

import (
	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
)

// InteractiveChunk holds prepared data for a chunk in the interactive UI.
type InteractiveChunk struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Kind    string   `json:"kind"` // entry, initial, async or split
	Modules []string `json:"modules"`
	Parents []string `json:"parents"`
}

// InteractiveData holds all data needed for the before/after viewer.
type InteractiveData struct {
	Before      []Slide            `json:"before"`
	After       []Slide            `json:"after"`
	Chunks      []InteractiveChunk `json:"chunks"`
	RepoAddress string             `json:"repoAddress"`
	Created     int                `json:"created"`
}

// PrepareChunks lists every chunk of g for the chunk table. Chunks in
// highlight are reported as split parts.
func PrepareChunks(g *chunkgraph.Graph, highlight map[chunkgraph.ChunkID]bool) []InteractiveChunk {
	opts := DiagramOptions{Highlight: highlight}
	out := make([]InteractiveChunk, 0, len(g.Chunks()))
	for _, c := range g.Chunks() {
		ic := InteractiveChunk{
			ID:      ChunkNodeID(c),
			Name:    c.String(),
			Kind:    kindOf(styleOf(c, opts)),
			Modules: []string{},
			Parents: []string{},
		}
		for _, m := range c.Modules() {
			ic.Modules = append(ic.Modules, m.Name)
		}
		for _, p := range c.Parents() {
			ic.Parents = append(ic.Parents, p.String())
		}
		out = append(out, ic)
	}
	return out
}

func kindOf(style string) string {
	switch style {
	case "splitStyle":
		return "split"
	case "entryStyle":
		return "entry"
	case "initialStyle":
		return "initial"
	default:
		return "async"
	}
}
