package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scholarbase/citetree/internal/model"
)

// ErrDatabaseNotFound is returned by Open when CreateIfNotExists is false
// and no database file exists at the given path.
var ErrDatabaseNotFound = errors.New("citation graph database not found")

// GraphDB provides SQLite-based storage for the citation graph.
// It manages connection pooling and provides methods for node, edge,
// and crawl-root operations.
//
// Design decision: All crawls against the same database accumulate into
// one graph rather than one file per crawl. Repeated crawls then share
// cached expansions, which is what makes resumption cheap.
type GraphDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures GraphDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a GraphDB at the specified file path.
// If CreateIfNotExists is true, the parent directory and database file
// are created as needed. If CreateIfNotExists is false and the database
// doesn't exist, ErrDatabaseNotFound is returned.
func Open(dbPath string, opts Options) (*GraphDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer, and the crawler's workers all
	// funnel their expansions through this connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	gdb := &GraphDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := gdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return gdb, nil
}

// Close closes the database connection.
func (gdb *GraphDB) Close() error {
	return gdb.db.Close()
}

// Path returns the database file path.
func (gdb *GraphDB) Path() string {
	return gdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (gdb *GraphDB) createTables() error {
	schema := `
	-- Papers are the graph's nodes. min_depth is the shallowest depth
	-- at which any crawl has reached the paper; state records whether
	-- its neighborhood has been fetched, and state_direction which
	-- traversal direction that fetch covered. A paper expanded for
	-- citations is still unfetched territory for a references crawl.
	CREATE TABLE IF NOT EXISTS papers (
		paper_id TEXT PRIMARY KEY,
		title TEXT,
		year INTEGER,
		citation_count INTEGER,
		min_depth INTEGER NOT NULL,
		state TEXT NOT NULL DEFAULT 'unexpanded',
		state_direction TEXT NOT NULL DEFAULT 'citations',
		last_attempt DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_papers_state ON papers(state);
	CREATE INDEX IF NOT EXISTS idx_papers_depth ON papers(min_depth);

	-- Edges are directed citation links. The primary key makes every
	-- insert of an already-known edge a no-op.
	CREATE TABLE IF NOT EXISTS edges (
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		influential INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (from_id, to_id, kind)
	);

	CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id);
	CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);

	-- Crawl roots record each crawl invocation's starting papers and
	-- parameters, for provenance.
	CREATE TABLE IF NOT EXISTS crawl_roots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		paper_id TEXT NOT NULL,
		original_id TEXT NOT NULL,
		depth INTEGER NOT NULL,
		direction TEXT NOT NULL,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_roots_paper ON crawl_roots(paper_id);
	`

	_, err := gdb.db.ExecContext(context.Background(), schema)
	return err
}

// upsertPaperQuery merges a paper into the graph. Attributes only ever
// gain information (COALESCE keeps stored values when the incoming ones
// are NULL), and min_depth only ever decreases.
const upsertPaperQuery = `
	INSERT INTO papers (paper_id, title, year, citation_count, min_depth, state)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(paper_id) DO UPDATE SET
		title = COALESCE(excluded.title, title),
		year = COALESCE(excluded.year, year),
		citation_count = COALESCE(excluded.citation_count, citation_count),
		min_depth = MIN(min_depth, excluded.min_depth)
	`

// UpsertPaper inserts a paper or merges its attributes into an existing
// row. The stored min_depth never increases, known attributes are never
// overwritten with NULL, and the expansion state is left untouched for
// existing rows.
func (gdb *GraphDB) UpsertPaper(ctx context.Context, paper *model.Paper) error {
	if _, err := gdb.db.ExecContext(ctx, upsertPaperQuery,
		paper.ID,
		paper.Title,
		paper.Year,
		paper.CitationCount,
		paper.MinDepth,
		paper.State.String(),
	); err != nil {
		return fmt.Errorf("failed to upsert paper: %w", err)
	}
	return nil
}

// upsertEdgeQuery inserts an edge, ignoring duplicates.
const upsertEdgeQuery = `
	INSERT INTO edges (from_id, to_id, kind, influential)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(from_id, to_id, kind) DO NOTHING
	`

// UpsertEdge inserts a citation edge if it isn't already present.
// It reports whether a new row was added.
func (gdb *GraphDB) UpsertEdge(ctx context.Context, edge *model.Edge) (bool, error) {
	result, err := gdb.db.ExecContext(ctx, upsertEdgeQuery,
		edge.From, edge.To, edge.Kind.String(), edge.Influential)
	if err != nil {
		return false, fmt.Errorf("failed to upsert edge: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read edge insert result: %w", err)
	}
	return n > 0, nil
}

// GetCrawlState returns a paper's crawl bookkeeping. The second return
// value is false when the paper is not in the graph.
func (gdb *GraphDB) GetCrawlState(ctx context.Context, paperID string) (model.CrawlState, bool, error) {
	query := `
	SELECT min_depth, state, state_direction, last_attempt
	FROM papers
	WHERE paper_id = ?
	`

	var cs model.CrawlState
	var state, direction string
	var lastAttempt sql.NullString

	err := gdb.db.QueryRowContext(ctx, query, paperID).Scan(&cs.MinDepth, &state, &direction, &lastAttempt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CrawlState{}, false, nil
	}
	if err != nil {
		return model.CrawlState{}, false, fmt.Errorf("failed to get crawl state: %w", err)
	}

	cs.State, err = model.ParseExpansionState(state)
	if err != nil {
		return model.CrawlState{}, false, fmt.Errorf("paper %s: %w", paperID, err)
	}
	cs.Direction, err = model.ParseDirection(direction)
	if err != nil {
		return model.CrawlState{}, false, fmt.Errorf("paper %s: %w", paperID, err)
	}
	if lastAttempt.Valid {
		cs.LastAttempt = parseTimestamp(lastAttempt.String)
	}
	return cs, true, nil
}

// GetPaper returns a paper row, or nil when the paper is not in the graph.
func (gdb *GraphDB) GetPaper(ctx context.Context, paperID string) (*model.Paper, error) {
	query := `
	SELECT paper_id, title, year, citation_count, min_depth, state, last_attempt
	FROM papers
	WHERE paper_id = ?
	`

	var paper model.Paper
	var state string
	var lastAttempt sql.NullString

	err := gdb.db.QueryRowContext(ctx, query, paperID).Scan(
		&paper.ID,
		&paper.Title,
		&paper.Year,
		&paper.CitationCount,
		&paper.MinDepth,
		&state,
		&lastAttempt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get paper: %w", err)
	}

	paper.State, err = model.ParseExpansionState(state)
	if err != nil {
		return nil, fmt.Errorf("paper %s: %w", paperID, err)
	}
	if lastAttempt.Valid {
		paper.LastAttempt = parseTimestamp(lastAttempt.String)
	}
	return &paper, nil
}

// ApplyExpansion commits one node expansion atomically: the expanded
// paper's new state, all discovered edges, and all neighbor rows land in
// a single transaction. It returns the number of edges actually added
// (duplicates excluded).
func (gdb *GraphDB) ApplyExpansion(ctx context.Context, exp *model.Expansion) (int, error) {
	tx, err := gdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin expansion transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	// Merge the expanded node first so its depth and state are fixed
	// before edges reference it.
	if _, err := tx.ExecContext(ctx, `
	INSERT INTO papers (paper_id, min_depth, state, state_direction, last_attempt)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(paper_id) DO UPDATE SET
		min_depth = MIN(min_depth, excluded.min_depth),
		state = excluded.state,
		state_direction = excluded.state_direction,
		last_attempt = CURRENT_TIMESTAMP
	`, exp.ID, exp.Depth, exp.State.String(), exp.Direction.String()); err != nil {
		return 0, fmt.Errorf("failed to update expanded paper: %w", err)
	}

	for i := range exp.Neighbors {
		n := &exp.Neighbors[i]
		if _, err := tx.ExecContext(ctx, upsertPaperQuery,
			n.ID, n.Title, n.Year, n.CitationCount, n.MinDepth, n.State.String()); err != nil {
			return 0, fmt.Errorf("failed to upsert neighbor %s: %w", n.ID, err)
		}
	}

	edgesAdded := 0
	for i := range exp.Edges {
		e := &exp.Edges[i]
		result, err := tx.ExecContext(ctx, upsertEdgeQuery,
			e.From, e.To, e.Kind.String(), e.Influential)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert edge %s -> %s: %w", e.From, e.To, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read edge insert result: %w", err)
		}
		edgesAdded += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit expansion: %w", err)
	}
	return edgesAdded, nil
}

// RecordAttempt marks a fetch attempt's outcome on a paper that could
// not be expanded, creating the row if needed. The direction records
// which traversal the attempt was made under.
func (gdb *GraphDB) RecordAttempt(ctx context.Context, paperID string, depth int, direction model.Direction, state model.ExpansionState) error {
	query := `
	INSERT INTO papers (paper_id, min_depth, state, state_direction, last_attempt)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(paper_id) DO UPDATE SET
		min_depth = MIN(min_depth, excluded.min_depth),
		state = excluded.state,
		state_direction = excluded.state_direction,
		last_attempt = CURRENT_TIMESTAMP
	`

	if _, err := gdb.db.ExecContext(ctx, query, paperID, depth, state.String(), direction.String()); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// Neighbors returns the stored edges leaving a paper in the given
// direction. An expanded paper with no matching edges returns an empty
// slice.
func (gdb *GraphDB) Neighbors(ctx context.Context, paperID string, direction model.Direction) ([]model.Edge, error) {
	query := `
	SELECT from_id, to_id, kind, influential
	FROM edges
	WHERE from_id = ? AND kind = ?
	ORDER BY to_id
	`

	rows, err := gdb.db.QueryContext(ctx, query, paperID, direction.EdgeKind().String())
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors: %w", err)
	}
	defer rows.Close()

	edges := make([]model.Edge, 0)
	for rows.Next() {
		var edge model.Edge
		var kind string

		if err := rows.Scan(&edge.From, &edge.To, &kind, &edge.Influential); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edge.Kind, err = model.ParseEdgeKind(kind)
		if err != nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", edge.From, edge.To, err)
		}
		edges = append(edges, edge)
	}

	return edges, rows.Err()
}

// AddRoot records one crawl invocation's starting paper.
func (gdb *GraphDB) AddRoot(ctx context.Context, root *model.CrawlRoot) error {
	query := `
	INSERT INTO crawl_roots (paper_id, original_id, depth, direction)
	VALUES (?, ?, ?, ?)
	`

	if _, err := gdb.db.ExecContext(ctx, query,
		root.PaperID, root.OriginalID, root.Depth, root.Direction.String()); err != nil {
		return fmt.Errorf("failed to add crawl root: %w", err)
	}
	return nil
}

// ListRoots returns all recorded crawl roots, newest first.
func (gdb *GraphDB) ListRoots(ctx context.Context) ([]model.CrawlRoot, error) {
	query := `
	SELECT paper_id, original_id, depth, direction, added_at
	FROM crawl_roots
	ORDER BY added_at DESC, id DESC
	`

	rows, err := gdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl roots: %w", err)
	}
	defer rows.Close()

	var roots []model.CrawlRoot
	for rows.Next() {
		var root model.CrawlRoot
		var direction, addedAt string

		if err := rows.Scan(&root.PaperID, &root.OriginalID, &root.Depth, &direction, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan crawl root: %w", err)
		}
		root.Direction, err = model.ParseDirection(direction)
		if err != nil {
			return nil, fmt.Errorf("crawl root %s: %w", root.PaperID, err)
		}
		root.AddedAt = parseTimestamp(addedAt)
		roots = append(roots, root)
	}

	return roots, rows.Err()
}

// Summarize computes aggregate statistics over the whole graph.
// MaxObservedDepth is -1 for an empty graph.
func (gdb *GraphDB) Summarize(ctx context.Context) (*model.GraphSummary, error) {
	summary := &model.GraphSummary{
		StateCounts:      make(map[string]int),
		DepthCounts:      make(map[int]int),
		MaxObservedDepth: -1,
	}

	if err := gdb.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM crawl_roots").Scan(&summary.TotalRoots); err != nil {
		return nil, fmt.Errorf("failed to count crawl roots: %w", err)
	}
	if err := gdb.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM papers").Scan(&summary.TotalPapers); err != nil {
		return nil, fmt.Errorf("failed to count papers: %w", err)
	}
	if err := gdb.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(influential), 0) FROM edges").Scan(
		&summary.TotalEdges, &summary.InfluentialEdges); err != nil {
		return nil, fmt.Errorf("failed to count edges: %w", err)
	}

	stateRows, err := gdb.db.QueryContext(ctx,
		"SELECT state, COUNT(*) FROM papers GROUP BY state")
	if err != nil {
		return nil, fmt.Errorf("failed to count states: %w", err)
	}
	defer stateRows.Close()

	for stateRows.Next() {
		var state string
		var count int
		if err := stateRows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan state count: %w", err)
		}
		summary.StateCounts[state] = count
	}
	if err := stateRows.Err(); err != nil {
		return nil, err
	}

	depthRows, err := gdb.db.QueryContext(ctx,
		"SELECT min_depth, COUNT(*) FROM papers GROUP BY min_depth")
	if err != nil {
		return nil, fmt.Errorf("failed to count depths: %w", err)
	}
	defer depthRows.Close()

	for depthRows.Next() {
		var depth, count int
		if err := depthRows.Scan(&depth, &count); err != nil {
			return nil, fmt.Errorf("failed to scan depth count: %w", err)
		}
		summary.DepthCounts[depth] = count
		if depth > summary.MaxObservedDepth {
			summary.MaxObservedDepth = depth
		}
	}
	if err := depthRows.Err(); err != nil {
		return nil, err
	}

	return summary, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
