package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
)

// DiagramOptions controls Mermaid diagram generation.
type DiagramOptions struct {
	MaxModulesPerBox int  // default 3, 0 hides module names, negative lists all
	IncludeInit      bool // include %%{init:}%% directive (for standalone .mmd files)

	// Highlight marks chunks drawn with the split style, typically the parts
	// created by a partitioning pass.
	Highlight map[chunkgraph.ChunkID]bool
}

// DefaultDiagramOptions returns sensible defaults for diagram generation.
func DefaultDiagramOptions() DiagramOptions {
	return DiagramOptions{MaxModulesPerBox: 3}
}

const initDirective = "%%{init: {'theme': 'base', 'themeVariables': {'primaryColor': '#ffffff', 'primaryBorderColor': '#cccccc', 'primaryTextColor': '#000000', 'lineColor': '#555555'}}%%\n"

// GenerateMermaid produces a Mermaid flowchart of g: entrypoints, chunks,
// parent edges (solid) and block edges (dashed).
func GenerateMermaid(g *chunkgraph.Graph, opts DiagramOptions) string {
	return generate(g.Entrypoints(), g.Chunks(), opts)
}

func generate(entrypoints []*chunkgraph.Entrypoint, chunks []*chunkgraph.Chunk, opts DiagramOptions) string {
	var b strings.Builder

	if opts.IncludeInit {
		b.WriteString(initDirective)
	}
	b.WriteString("flowchart LR")
	if len(chunks) == 0 {
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString("    classDef entryStyle fill:#2374ab,stroke:#1a5a8a,color:#fff,stroke-width:2px,font-weight:bold\n")
	b.WriteString("    classDef initialStyle fill:#4a9c6d,stroke:#357a50,color:#fff,stroke-width:2px\n")
	b.WriteString("    classDef asyncStyle fill:#f4f4f4,stroke:#888888,color:#000,stroke-dasharray:4 3\n")
	b.WriteString("    classDef splitStyle fill:#e8a33d,stroke:#b87a1f,color:#000,stroke-width:2px")

	included := make(map[*chunkgraph.Chunk]bool, len(chunks))
	for _, c := range chunks {
		included[c] = true
	}

	// Entrypoints section.
	for i, e := range entrypoints {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("    %s([\"%s\"])", EntrypointNodeID(i), escapeLabel(e.Name)))
	}

	// Chunks section.
	for _, c := range chunks {
		b.WriteString("\n")
		writeChunkNode(&b, c, opts)
	}

	// Edges section.
	var edges []string
	for i, e := range entrypoints {
		for pos, c := range e.Chunks() {
			if included[c] {
				edges = append(edges, fmt.Sprintf("    %s -- \"%d\" --> %s", EntrypointNodeID(i), pos+1, ChunkNodeID(c)))
			}
		}
	}
	for _, c := range chunks {
		parents := c.Parents()
		sort.Slice(parents, func(i, j int) bool { return parents[i].ID() < parents[j].ID() })
		for _, p := range parents {
			if included[p] {
				edges = append(edges, fmt.Sprintf("    %s --> %s", ChunkNodeID(p), ChunkNodeID(c)))
			}
		}
	}
	edges = append(edges, blockEdges(chunks, included)...)
	if len(edges) > 0 {
		b.WriteString("\n")
	}
	for _, e := range edges {
		b.WriteString("\n")
		b.WriteString(e)
	}

	// Style assignments section.
	b.WriteString("\n")
	for i := range entrypoints {
		b.WriteString(fmt.Sprintf("\n    class %s entryStyle", EntrypointNodeID(i)))
	}
	for _, c := range chunks {
		b.WriteString(fmt.Sprintf("\n    class %s %s", ChunkNodeID(c), styleOf(c, opts)))
	}

	return b.String()
}

// blockEdges draws one dashed edge from every chunk holding a block's
// origin module to every chunk the block loads.
func blockEdges(chunks []*chunkgraph.Chunk, included map[*chunkgraph.Chunk]bool) []string {
	seen := make(map[[2]chunkgraph.ChunkID]bool)
	var edges []string
	for _, c := range chunks {
		for _, blk := range c.Blocks() {
			if blk.Origin == nil {
				continue
			}
			for _, from := range blk.Origin.Chunks() {
				if !included[from] {
					continue
				}
				for _, to := range blk.Chunks() {
					key := [2]chunkgraph.ChunkID{from.ID(), to.ID()}
					if !included[to] || seen[key] {
						continue
					}
					seen[key] = true
					edges = append(edges, fmt.Sprintf("    %s -.-> %s", ChunkNodeID(from), ChunkNodeID(to)))
				}
			}
		}
	}
	return edges
}

func styleOf(c *chunkgraph.Chunk, opts DiagramOptions) string {
	switch {
	case opts.Highlight[c.ID()]:
		return "splitStyle"
	case c.HasRuntime():
		return "entryStyle"
	case c.IsInitial():
		return "initialStyle"
	default:
		return "asyncStyle"
	}
}

// writeChunkNode writes a node with the chunk name, its module count and the
// first few module names.
func writeChunkNode(b *strings.Builder, c *chunkgraph.Chunk, opts DiagramOptions) {
	lines := []string{escapeLabel(c.String()), fmt.Sprintf("%d modules", c.ModuleCount())}

	modules := c.Modules()
	limit := len(modules)
	truncated := false
	if opts.MaxModulesPerBox >= 0 && limit > opts.MaxModulesPerBox {
		limit = opts.MaxModulesPerBox
		truncated = opts.MaxModulesPerBox > 0
	}
	for _, m := range modules[:limit] {
		lines = append(lines, escapeLabel(m.Name))
	}
	if truncated {
		lines = append(lines, "...")
	}
	b.WriteString(fmt.Sprintf("    %s[\"%s\"]", ChunkNodeID(c), strings.Join(lines, "<br/>")))
}

// escapeLabel replaces characters that end a quoted Mermaid label.
func escapeLabel(s string) string {
	r := strings.NewReplacer("\"", "#quot;", "<", "#lt;", ">", "#gt;")
	return r.Replace(s)
}

// ChunkNodeID is the node identifier of c. IDs are stable across passes, so
// before and after diagrams of one graph share node names.
func ChunkNodeID(c *chunkgraph.Chunk) string {
	return fmt.Sprintf("c%d", c.ID())
}

// EntrypointNodeID is the node identifier of the i-th entrypoint.
func EntrypointNodeID(i int) string {
	return fmt.Sprintf("ep%d", i)
}
