package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/scholarbase/citetree/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. Mermaid chart embedding
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.GraphSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Citation Graph Summary")
	md.PlainText("")

	if summary.TotalPapers == 0 {
		md.Note("The graph is empty. Run `citetree add` to crawl some papers.")
		return len(md.String()), md.Build()
	}

	w.writeOverview(md, summary)
	w.writeStates(md, summary)
	w.writeDepths(md, summary)
	w.writeCoverageAlert(md, summary)

	return len(md.String()), md.Build()
}

// writeOverview writes the top-level counts table.
func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, summary *model.GraphSummary) {
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Crawl roots", strconv.Itoa(summary.TotalRoots)},
			{"Papers", strconv.Itoa(summary.TotalPapers)},
			{"Edges", strconv.Itoa(summary.TotalEdges)},
			{"Influential edges", strconv.Itoa(summary.InfluentialEdges)},
			{"Max observed depth", strconv.Itoa(summary.MaxObservedDepth)},
		},
	})
	md.PlainText("")
}

// writeStates writes the expansion-state breakdown with a pie chart.
func (w *MarkdownWriter) writeStates(md *markdown.Markdown, summary *model.GraphSummary) {
	md.H2("Expansion States")
	md.PlainText("")

	rows := make([][]string, 0, len(stateOrder))
	for _, state := range stateOrder {
		rows = append(rows, []string{state.String(), strconv.Itoa(summary.CountByState(state))})
	}
	md.Table(markdown.TableSet{
		Header: []string{"State", "Papers"},
		Rows:   rows,
	})

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Papers by Expansion State"),
		piechart.WithShowData(true),
	)
	for _, state := range stateOrder {
		if count := summary.CountByState(state); count > 0 {
			chart.LabelAndIntValue(state.String(), uint64(count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeDepths writes the per-depth paper counts.
func (w *MarkdownWriter) writeDepths(md *markdown.Markdown, summary *model.GraphSummary) {
	md.H2("Depth Distribution")
	md.PlainText("")

	depths := make([]int, 0, len(summary.DepthCounts))
	for depth := range summary.DepthCounts {
		depths = append(depths, depth)
	}
	sort.Ints(depths)

	rows := make([][]string, 0, len(depths))
	for _, depth := range depths {
		rows = append(rows, []string{strconv.Itoa(depth), strconv.Itoa(summary.DepthCounts[depth])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Depth", "Papers"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeCoverageAlert summarizes crawl health as a markdown alert.
func (w *MarkdownWriter) writeCoverageAlert(md *markdown.Markdown, summary *model.GraphSummary) {
	failed := summary.CountByState(model.ExpansionFailed)
	truncated := summary.CountByState(model.ExpansionTruncated)

	switch {
	case failed > 0:
		md.Warningf(
			"%d paper(s) failed to expand. Re-run with --retry-failed to attempt them again.",
			failed,
		)
	case truncated > 0:
		md.Note(fmt.Sprintf(
			"%d paper(s) were truncated by the per-node limit; their neighbor lists are incomplete.",
			truncated,
		))
	default:
		md.Tip("All expanded papers have complete neighbor lists.")
	}
	md.PlainText("")
}
