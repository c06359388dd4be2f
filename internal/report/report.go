// Package report prints a terminal summary of a partitioning pass.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/olehluchkiv/chunksplit/internal/chunkgraph"
	"github.com/olehluchkiv/chunksplit/internal/partition"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Padding(0, 1)
	cellStyle = lipgloss.NewStyle().Padding(0, 1)
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)
)

// Summary holds the numbers printed above the table.
type Summary struct {
	ChunksBefore int
	ChunksAfter  int
	Split        int
	Created      int
	Largest      int // module count of the largest chunk after the pass
}

// Summarize computes the summary of res over g.
func Summarize(g *chunkgraph.Graph, res *partition.Result, chunksBefore int) Summary {
	s := Summary{ChunksBefore: chunksBefore, ChunksAfter: len(g.Chunks())}
	if res != nil {
		s.Split = len(res.Splits)
		s.Created = len(res.Created)
	}
	for _, c := range g.Chunks() {
		s.Largest = max(s.Largest, c.ModuleCount())
	}
	return s
}

// Render writes the summary and one table row per created part.
func Render(w io.Writer, g *chunkgraph.Graph, res *partition.Result, chunksBefore int) error {
	s := Summarize(g, res, chunksBefore)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Chunk splitting"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d chunks -> %d chunks, %d split, %d parts created, largest chunk %d modules\n",
		s.ChunksBefore, s.ChunksAfter, s.Split, s.Created, s.Largest)

	if !res.Changed() {
		b.WriteString(hintStyle.Render("Every chunk is within its limit; nothing to split."))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SOURCE", "KIND", "PART", "MODULES", "PARENTS", "AFFECTED").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, split := range res.Splits {
		for _, part := range split.Parts {
			t.Row(
				split.Source.String(),
				kind(split),
				part.String(),
				strconv.Itoa(part.ModuleCount()),
				joinChunks(part.Parents()),
				joinChunks(split.Affected),
			)
		}
	}
	b.WriteString(t.String())
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func kind(s partition.SourceSplit) string {
	switch {
	case s.Async:
		return "async"
	case s.Entry:
		return "entry"
	default:
		return "initial"
	}
}

func joinChunks(chunks []*chunkgraph.Chunk) string {
	if len(chunks) == 0 {
		return "-"
	}
	names := make([]string, len(chunks))
	for i, c := range chunks {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}
