package model

import (
	"errors"
	"fmt"
)

// ErrInvalidExpansionState is returned when a string does not name a known state.
var ErrInvalidExpansionState = errors.New("invalid expansion state")

// ExpansionState tracks how far a paper's neighbor set has been fetched.
//
// Design decision: We use iota-based constants with a String() method rather
// than string constants so comparisons and switch statements stay cheap; the
// store persists the string form for readability in ad hoc SQL queries.
type ExpansionState int

const (
	// ExpansionUnexpanded means the paper was discovered but its neighbors
	// were never fetched. Papers found only as leaves beyond the depth limit
	// stay in this state.
	ExpansionUnexpanded ExpansionState = iota

	// ExpansionExpanded means the full neighbor set (up to the configured
	// per-node limit, which was not hit) was fetched and recorded.
	ExpansionExpanded

	// ExpansionTruncated means the neighbor fetch was cut off by the
	// per-node limit before exhaustion.
	ExpansionTruncated

	// ExpansionFailed means expansion was attempted and permanently failed.
	// Failed papers are not retried unless explicitly requested.
	ExpansionFailed
)

// String returns the persisted representation of the state.
func (s ExpansionState) String() string {
	switch s {
	case ExpansionUnexpanded:
		return "unexpanded"
	case ExpansionExpanded:
		return "expanded"
	case ExpansionTruncated:
		return "truncated"
	case ExpansionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Expanded reports whether the paper's neighbor set has been recorded,
// fully or truncated. Such papers are never re-fetched.
func (s ExpansionState) Expanded() bool {
	return s == ExpansionExpanded || s == ExpansionTruncated
}

// ParseExpansionState converts a persisted string back to an ExpansionState.
func ParseExpansionState(s string) (ExpansionState, error) {
	switch s {
	case "unexpanded":
		return ExpansionUnexpanded, nil
	case "expanded":
		return ExpansionExpanded, nil
	case "truncated":
		return ExpansionTruncated, nil
	case "failed":
		return ExpansionFailed, nil
	default:
		return ExpansionUnexpanded, fmt.Errorf("%w: %q", ErrInvalidExpansionState, s)
	}
}
