package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/scholarbase/citetree/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether zero-count rows are shown.
	showEmpty bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show zero-count rows.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.GraphSummary) (int, error) {
	var sb strings.Builder

	sb.WriteString("Citation Graph Summary\n")
	sb.WriteString("======================\n\n")

	if summary.TotalPapers == 0 {
		sb.WriteString("The graph is empty. Run 'citetree add' to crawl some papers.\n")
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "Crawl roots:        %d\n", summary.TotalRoots)
	fmt.Fprintf(&sb, "Papers:             %d\n", summary.TotalPapers)
	fmt.Fprintf(&sb, "Edges:              %d\n", summary.TotalEdges)
	fmt.Fprintf(&sb, "Influential edges:  %d\n", summary.InfluentialEdges)
	fmt.Fprintf(&sb, "Max observed depth: %d\n", summary.MaxObservedDepth)

	sb.WriteString("\nPapers by expansion state:\n")
	for _, state := range stateOrder {
		count := summary.CountByState(state)
		if count == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(&sb, "  %-12s %d\n", state.String(), count)
	}

	sb.WriteString("\nPapers by depth:\n")
	depths := make([]int, 0, len(summary.DepthCounts))
	for depth := range summary.DepthCounts {
		depths = append(depths, depth)
	}
	sort.Ints(depths)
	for _, depth := range depths {
		fmt.Fprintf(&sb, "  depth %-6d %d\n", depth, summary.DepthCounts[depth])
	}

	return io.WriteString(w.output, sb.String())
}
