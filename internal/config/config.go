package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/scholarbase/citetree/internal/model"
)

// Default configuration values.
// Defaults mirror the Semantic Scholar Graph API limits where applicable.
const (
	// DefaultDepth is the maximum traversal depth. Depth 2 covers the
	// seeds, their direct neighbors, and the neighbors' neighbors, which
	// is the sweet spot between coverage and API quota for most crawls.
	DefaultDepth = 2

	// DefaultLimit is the maximum neighbors fetched per paper.
	// 1000 is the API's maximum page window; a value of 0 means unbounded.
	DefaultLimit = 1000

	// DefaultWorkers is the number of concurrent expansions per depth
	// level. 1 keeps the crawl strictly sequential, which is the sensible
	// default given the API's rate limits. All workers share one rate
	// limiter, so raising this mostly helps with network latency, not quota.
	DefaultWorkers = 1

	// DefaultMaxRetries is the number of fetch attempts per paper before
	// it is marked failed.
	DefaultMaxRetries = 4

	// DefaultInitialBackoff is the wait before the first retry.
	DefaultInitialBackoff = 1 * time.Second

	// DefaultMaxBackoff caps the exponential backoff between retries.
	DefaultMaxBackoff = 30 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "citetree"

	// DBFileName is the SQLite database file name inside the data directory.
	DBFileName = "citetree.db"

	// APIKeyEnv is the environment variable holding the Semantic Scholar
	// API key. A key raises the effective rate limit; crawl semantics are
	// unchanged without one.
	APIKeyEnv = "CITETREE_API_KEY"
)

// Config holds the fully resolved crawl parameters for one invocation.
// It is populated once from defaults, the optional config file, and CLI
// flags (in that order, later sources winning field-by-field), validated,
// and then passed through the application immutably. Nothing reads flags
// or the file again mid-crawl.
type Config struct {
	// DBPath is the SQLite database file path.
	// Defaults to the XDG data directory (see DefaultDBPath).
	DBPath string

	// ConfigFilePath is the explicit config file path, empty to search
	// for .citetree.yaml in the current and then the home directory.
	ConfigFilePath string

	// Seeds are the paper identifiers to crawl from, in their raw
	// (pre-normalization) form. The union of the config file's papers
	// list and the CLI arguments, config entries first, deduplicated.
	Seeds []string

	// Depth is the maximum traversal depth. Depth 0 records the seeds
	// without expanding anything.
	Depth int

	// Direction selects citations (papers citing each node) or
	// references (papers each node cites).
	Direction model.Direction

	// Limit is the maximum neighbors fetched per paper; 0 means unbounded.
	Limit int

	// InfluentialOnly keeps only edges the API flags as influential.
	InfluentialOnly bool

	// Workers is the number of concurrent expansions per depth level.
	Workers int

	// RetryFailed re-attempts papers previously marked failed.
	RetryFailed bool

	// APIKey is the Semantic Scholar API key, empty for anonymous access.
	APIKey string

	// Verbose enables debug-level log output.
	Verbose bool
}

// NewConfig creates a Config with default values.
// Callers override specific fields from the config file and CLI flags
// before calling Validate.
func NewConfig() *Config {
	return &Config{
		DBPath:    DefaultDBPath(),
		Depth:     DefaultDepth,
		Direction: model.DirectionCitations,
		Limit:     DefaultLimit,
		Workers:   DefaultWorkers,
	}
}

// XDGDataDir returns the XDG data directory for citetree.
// On Linux: ~/.local/share/citetree
// On macOS: ~/Library/Application Support/citetree
// On Windows: %LOCALAPPDATA%\citetree
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultDBPath returns the default database file path inside the XDG
// data directory.
func DefaultDBPath() string {
	return filepath.Join(XDGDataDir(), DBFileName)
}

// Validate checks if the configuration is valid.
// It returns a sentinel error describing the first problem found; fixing
// one error often makes others irrelevant, so we don't collect them all.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}

	if c.Depth < 0 {
		return ErrInvalidDepth
	}

	if c.Limit < 0 {
		return ErrInvalidLimit
	}

	if c.Workers < 1 {
		return ErrInvalidWorkers
	}

	if c.DBPath == "" {
		return ErrNoDBPath
	}

	return nil
}
