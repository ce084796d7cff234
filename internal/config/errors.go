package config

import "errors"

// Configuration validation errors.
// These are package-level sentinels so callers can use errors.Is() for
// programmatic handling (the CLI maps them to the invalid-input exit code)
// while still carrying human-readable messages.
var (
	// ErrNoSeeds is returned when neither the CLI arguments nor the config
	// file's papers list provide a seed identifier.
	ErrNoSeeds = errors.New("no seed papers specified: pass paper IDs as arguments or list them under 'papers' in the config file")

	// ErrInvalidDepth is returned when the traversal depth is negative.
	ErrInvalidDepth = errors.New("invalid depth: must be zero or positive")

	// ErrInvalidLimit is returned when the per-paper neighbor limit is
	// negative. Use 0 for unbounded.
	ErrInvalidLimit = errors.New("invalid limit: must be zero (unbounded) or positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrNoDBPath is returned when the database path resolves to empty.
	ErrNoDBPath = errors.New("no database path specified")

	// ErrConflictingOutputFormats is returned when both --json and
	// --markdown are requested for the status report.
	ErrConflictingOutputFormats = errors.New("conflicting output formats: --json and --markdown cannot be used together")
)
