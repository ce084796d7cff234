package model

import (
	"errors"
	"fmt"
)

// Direction errors.
var (
	// ErrInvalidDirection is returned when a string names no known traversal direction.
	ErrInvalidDirection = errors.New("invalid direction: must be 'citations' or 'references'")
	// ErrInvalidEdgeKind is returned when a string names no known edge kind.
	ErrInvalidEdgeKind = errors.New("invalid edge kind")
)

// Direction selects which citation links a crawl follows from each paper.
type Direction int

const (
	// DirectionCitations follows incoming links: papers that cite the
	// current paper (forward in time).
	DirectionCitations Direction = iota

	// DirectionReferences follows outgoing links: papers the current
	// paper cites (backward in time).
	DirectionReferences
)

// String returns the CLI and config-file spelling of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionCitations:
		return "citations"
	case DirectionReferences:
		return "references"
	default:
		return "unknown"
	}
}

// EdgeKind returns the label recorded on edges discovered while
// traversing in this direction.
func (d Direction) EdgeKind() EdgeKind {
	if d == DirectionReferences {
		return EdgeCitesTo
	}
	return EdgeCitedBy
}

// ParseDirection converts a CLI or config-file string to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "citations":
		return DirectionCitations, nil
	case "references":
		return DirectionReferences, nil
	default:
		return DirectionCitations, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// EdgeKind distinguishes the two relations an edge row can express.
// An edge (from, to, citedBy) means "from is cited by to"; an edge
// (from, to, citesTo) means "from cites to". The same pair of papers can
// legitimately carry both rows when crawls ran in both directions.
type EdgeKind int

const (
	// EdgeCitedBy links a paper to a paper that cites it.
	EdgeCitedBy EdgeKind = iota
	// EdgeCitesTo links a paper to a paper it cites.
	EdgeCitesTo
)

// String returns the persisted representation of the edge kind.
func (k EdgeKind) String() string {
	switch k {
	case EdgeCitedBy:
		return "citedBy"
	case EdgeCitesTo:
		return "citesTo"
	default:
		return "unknown"
	}
}

// ParseEdgeKind converts a persisted string back to an EdgeKind.
func ParseEdgeKind(s string) (EdgeKind, error) {
	switch s {
	case "citedBy":
		return EdgeCitedBy, nil
	case "citesTo":
		return EdgeCitesTo, nil
	default:
		return EdgeCitedBy, fmt.Errorf("%w: %q", ErrInvalidEdgeKind, s)
	}
}
