package diagram

import (
	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
)

// Slide represents one navigable page in the slide deck.
type Slide struct {
	Title   string `json:"title"`
	Mermaid string `json:"mermaid"`
}

// SlideOptions controls slide deck generation.
type SlideOptions struct {
	Threshold int // chunk count above which slides activate; 0 = always single
}

// DefaultSlideOptions returns sensible defaults.
func DefaultSlideOptions() SlideOptions {
	return SlideOptions{Threshold: 20}
}

// BuildSlides splits the diagram of g into slides once it has Threshold or
// more chunks: an overview without module names, then one slide per
// entrypoint holding its chunks and every chunk they load, then a slide for
// chunks no entrypoint reaches. Smaller graphs get a single slide.
func BuildSlides(g *chunkgraph.Graph, diagOpts DiagramOptions, opts SlideOptions) []Slide {
	chunks := g.Chunks()
	if opts.Threshold <= 0 || len(chunks) < opts.Threshold {
		return []Slide{{
			Title:   "Full Graph",
			Mermaid: GenerateMermaid(g, diagOpts),
		}}
	}

	overviewOpts := diagOpts
	overviewOpts.MaxModulesPerBox = 0
	slides := []Slide{{
		Title:   "Overview",
		Mermaid: GenerateMermaid(g, overviewOpts),
	}}

	loads := loadedBy(chunks)
	covered := make(map[*chunkgraph.Chunk]bool)
	for _, e := range g.Entrypoints() {
		members := closure(e.Chunks(), loads)
		for _, c := range members {
			covered[c] = true
		}
		slides = append(slides, Slide{
			Title:   "Entrypoint " + e.Name,
			Mermaid: generate([]*chunkgraph.Entrypoint{e}, members, diagOpts),
		})
	}

	var rest []*chunkgraph.Chunk
	for _, c := range chunks {
		if !covered[c] {
			rest = append(rest, c)
		}
	}
	if len(rest) > 0 {
		slides = append(slides, Slide{
			Title:   "Unreached Chunks",
			Mermaid: generate(nil, rest, diagOpts),
		})
	}
	return slides
}

// loadedBy maps every chunk to the chunks it loads: its children and the
// chunks of every block whose origin module it holds.
func loadedBy(chunks []*chunkgraph.Chunk) map[*chunkgraph.Chunk][]*chunkgraph.Chunk {
	loads := make(map[*chunkgraph.Chunk][]*chunkgraph.Chunk, len(chunks))
	for _, c := range chunks {
		loads[c] = append(loads[c], c.Children()...)
		for _, blk := range c.Blocks() {
			if blk.Origin == nil {
				continue
			}
			for _, from := range blk.Origin.Chunks() {
				loads[from] = append(loads[from], blk.Chunks()...)
			}
		}
	}
	return loads
}

// closure returns roots and everything they load, in discovery order.
func closure(roots []*chunkgraph.Chunk, loads map[*chunkgraph.Chunk][]*chunkgraph.Chunk) []*chunkgraph.Chunk {
	seen := make(map[*chunkgraph.Chunk]bool)
	var out []*chunkgraph.Chunk
	queue := append([]*chunkgraph.Chunk(nil), roots...)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		queue = append(queue, loads[c]...)
	}
	return out
}
