package model

import "time"

// Paper is a node of the citation graph as persisted in the store.
//
// Title, Year, and CitationCount are cached attributes captured at first
// discovery. They are pointers because the API may omit any of them; a nil
// field means "unknown", which the store preserves instead of overwriting
// a known value with NULL on later merges.
type Paper struct {
	// ID is the normalized paper identifier (see NormalizePaperID).
	ID string

	// Title is the paper title, if known.
	Title *string

	// Year is the publication year, if known.
	Year *int

	// CitationCount is the total citation count reported by the API, if known.
	CitationCount *int

	// MinDepth is the smallest BFS depth at which this paper was ever
	// reached from any seed. Monotonically non-increasing.
	MinDepth int

	// State records how far this paper's neighbor set has been fetched.
	State ExpansionState

	// LastAttempt is when expansion was last attempted, zero if never.
	LastAttempt time.Time
}

// CrawlState is the per-paper resumability record read back by the scheduler.
// Direction is the traversal direction that earned the current State: a
// paper expanded by a citations crawl is not expanded for a references
// crawl, which fetches the other side of its neighborhood.
type CrawlState struct {
	MinDepth    int
	State       ExpansionState
	Direction   Direction
	LastAttempt time.Time
}

// Satisfies reports whether this state makes a fetch in the given
// direction unnecessary.
func (cs CrawlState) Satisfies(d Direction) bool {
	return cs.State.Expanded() && cs.Direction == d
}

// Edge is a directed relation between two papers. Edges are deduplicated
// by the (From, To, Kind) triple; re-discovering an edge is a no-op.
type Edge struct {
	// From is the paper the edge was discovered from.
	From string

	// To is the neighbor paper.
	To string

	// Kind is the relation the edge expresses (see EdgeKind).
	Kind EdgeKind

	// Influential is true when the source API flagged the citation as
	// having substantively influenced the citing work.
	Influential bool
}

// Expansion is the unit of work committed atomically after a paper's
// neighbors are fetched: the node's new crawl state, the edges discovered
// from it, and the neighbor papers with their merged depths. Committing
// these together means a crash never leaves an expanded marker without
// its edges.
type Expansion struct {
	// ID is the expanded paper.
	ID string

	// Depth is the BFS depth the paper was expanded at.
	Depth int

	// State is the resulting expansion state (Expanded or Truncated).
	State ExpansionState

	// Direction is the traversal direction the expansion was fetched
	// under. Recorded with the state so a later crawl in the other
	// direction knows this paper still needs its own fetch.
	Direction Direction

	// Edges are the edges discovered from the paper.
	Edges []Edge

	// Neighbors are the neighbor papers to insert or depth-merge,
	// carrying MinDepth = Depth+1 and any cached attributes.
	Neighbors []Paper
}

// CrawlRoot records a seed paper that was added to the store, keeping the
// original identifier the user supplied alongside the resolved S2 ID.
type CrawlRoot struct {
	PaperID    string
	OriginalID string
	Depth      int
	Direction  Direction
	AddedAt    time.Time
}
