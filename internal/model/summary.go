package model

// GraphSummary is a consistent snapshot of store coverage, produced by the
// store's Summarize and rendered by the report writers.
type GraphSummary struct {
	// TotalRoots is the number of crawl roots recorded.
	TotalRoots int `json:"totalRoots"`

	// TotalPapers is the number of paper rows.
	TotalPapers int `json:"totalPapers"`

	// TotalEdges is the number of edge rows.
	TotalEdges int `json:"totalEdges"`

	// InfluentialEdges is the number of edges flagged influential.
	InfluentialEdges int `json:"influentialEdges"`

	// StateCounts maps expansion state names to paper counts.
	StateCounts map[string]int `json:"stateCounts"`

	// DepthCounts maps minimum depth to paper counts.
	DepthCounts map[int]int `json:"depthCounts"`

	// MaxObservedDepth is the largest minimum depth of any paper,
	// -1 when the store is empty.
	MaxObservedDepth int `json:"maxObservedDepth"`
}

// CountByState returns the paper count for a state, zero if absent.
func (s *GraphSummary) CountByState(state ExpansionState) int {
	return s.StateCounts[state.String()]
}
