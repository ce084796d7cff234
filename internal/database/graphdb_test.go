package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/scholarbase/citetree/internal/model"
)

// openTestDB creates a fresh GraphDB in a temporary directory.
func openTestDB(t *testing.T) *GraphDB {
	t.Helper()

	gdb, err := Open(filepath.Join(t.TempDir(), "citetree.db"), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := gdb.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return gdb
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// TestOpen tests database creation semantics.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database and parent directory", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "dir", "citetree.db")
		gdb, err := Open(path, DefaultOptions())
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer gdb.Close() //nolint:errcheck // Test cleanup

		if gdb.Path() != path {
			t.Errorf("Path() = %q, want %q", gdb.Path(), path)
		}
	})

	t.Run("missing database without create option", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "missing.db")
		_, err := Open(path, Options{CreateIfNotExists: false})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Errorf("error = %v, want ErrDatabaseNotFound", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "citetree.db")
		gdb, err := Open(path, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if err := gdb.Close(); err != nil {
			t.Fatal(err)
		}

		gdb, err = Open(path, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		defer gdb.Close() //nolint:errcheck // Test cleanup
	})
}

// TestUpsertPaper tests the merge semantics of paper rows.
func TestUpsertPaper(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("min depth only decreases", func(t *testing.T) {
		t.Parallel()

		gdb := openTestDB(t)
		if err := gdb.UpsertPaper(ctx, &model.Paper{ID: "p1", MinDepth: 2}); err != nil {
			t.Fatal(err)
		}

		// A deeper sighting must not raise the stored depth.
		if err := gdb.UpsertPaper(ctx, &model.Paper{ID: "p1", MinDepth: 5}); err != nil {
			t.Fatal(err)
		}
		cs, found, err := gdb.GetCrawlState(ctx, "p1")
		if err != nil || !found {
			t.Fatalf("GetCrawlState: found=%t err=%v", found, err)
		}
		if cs.MinDepth != 2 {
			t.Errorf("MinDepth = %d, want 2 after deeper sighting", cs.MinDepth)
		}

		// A shallower sighting lowers it.
		if err := gdb.UpsertPaper(ctx, &model.Paper{ID: "p1", MinDepth: 1}); err != nil {
			t.Fatal(err)
		}
		cs, _, err = gdb.GetCrawlState(ctx, "p1")
		if err != nil {
			t.Fatal(err)
		}
		if cs.MinDepth != 1 {
			t.Errorf("MinDepth = %d, want 1 after shallower sighting", cs.MinDepth)
		}
	})

	t.Run("known attributes survive nil upserts", func(t *testing.T) {
		t.Parallel()

		gdb := openTestDB(t)
		if err := gdb.UpsertPaper(ctx, &model.Paper{
			ID:    "p1",
			Title: strPtr("Deep Learning"),
			Year:  intPtr(2015),
		}); err != nil {
			t.Fatal(err)
		}
		if err := gdb.UpsertPaper(ctx, &model.Paper{ID: "p1", CitationCount: intPtr(42)}); err != nil {
			t.Fatal(err)
		}

		paper, err := gdb.GetPaper(ctx, "p1")
		if err != nil {
			t.Fatal(err)
		}
		if paper == nil {
			t.Fatal("paper not found")
		}
		if paper.Title == nil || *paper.Title != "Deep Learning" {
			t.Errorf("Title = %v, want preserved title", paper.Title)
		}
		if paper.Year == nil || *paper.Year != 2015 {
			t.Errorf("Year = %v, want preserved year", paper.Year)
		}
		if paper.CitationCount == nil || *paper.CitationCount != 42 {
			t.Errorf("CitationCount = %v, want 42", paper.CitationCount)
		}
	})

	t.Run("upsert does not clobber expansion state", func(t *testing.T) {
		t.Parallel()

		gdb := openTestDB(t)
		if err := gdb.RecordAttempt(ctx, "p1", 0, model.DirectionCitations, model.ExpansionExpanded); err != nil {
			t.Fatal(err)
		}
		if err := gdb.UpsertPaper(ctx, &model.Paper{ID: "p1", State: model.ExpansionUnexpanded}); err != nil {
			t.Fatal(err)
		}

		cs, _, err := gdb.GetCrawlState(ctx, "p1")
		if err != nil {
			t.Fatal(err)
		}
		if cs.State != model.ExpansionExpanded {
			t.Errorf("State = %v, want expanded to survive a neighbor-merge upsert", cs.State)
		}
	})

	t.Run("state direction round-trips", func(t *testing.T) {
		t.Parallel()

		gdb := openTestDB(t)
		if err := gdb.RecordAttempt(ctx, "p1", 1, model.DirectionReferences, model.ExpansionFailed); err != nil {
			t.Fatal(err)
		}

		cs, found, err := gdb.GetCrawlState(ctx, "p1")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("paper not found")
		}
		if cs.Direction != model.DirectionReferences {
			t.Errorf("Direction = %v, want references", cs.Direction)
		}
		if cs.Satisfies(model.DirectionCitations) || cs.Satisfies(model.DirectionReferences) {
			t.Error("a failed attempt must not satisfy any direction")
		}
	})

	t.Run("missing paper", func(t *testing.T) {
		t.Parallel()

		gdb := openTestDB(t)
		_, found, err := gdb.GetCrawlState(ctx, "nope")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Error("found = true for missing paper")
		}
		paper, err := gdb.GetPaper(ctx, "nope")
		if err != nil {
			t.Fatal(err)
		}
		if paper != nil {
			t.Error("GetPaper should return nil for missing paper")
		}
	})
}

// TestUpsertEdge tests edge deduplication.
func TestUpsertEdge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gdb := openTestDB(t)

	edge := &model.Edge{From: "a", To: "b", Kind: model.EdgeCitedBy, Influential: true}
	added, err := gdb.UpsertEdge(ctx, edge)
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Error("first insert should add an edge")
	}

	added, err = gdb.UpsertEdge(ctx, edge)
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("duplicate insert must be a no-op")
	}

	// The same pair with the other kind is a distinct edge.
	added, err = gdb.UpsertEdge(ctx, &model.Edge{From: "a", To: "b", Kind: model.EdgeCitesTo})
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Error("same pair with different kind should be a new edge")
	}
}

// TestApplyExpansion tests the atomic expansion commit.
func TestApplyExpansion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("commits node, neighbors, and edges together", func(t *testing.T) {
		t.Parallel()

		gdb := openTestDB(t)
		exp := &model.Expansion{
			ID:        "p1",
			Depth:     0,
			State:     model.ExpansionExpanded,
			Direction: model.DirectionCitations,
			Edges: []model.Edge{
				{From: "p1", To: "p2", Kind: model.EdgeCitedBy, Influential: true},
				{From: "p1", To: "p3", Kind: model.EdgeCitedBy},
			},
			Neighbors: []model.Paper{
				{ID: "p2", Title: strPtr("Second"), MinDepth: 1},
				{ID: "p3", MinDepth: 1},
			},
		}

		edgesAdded, err := gdb.ApplyExpansion(ctx, exp)
		if err != nil {
			t.Fatalf("ApplyExpansion failed: %v", err)
		}
		if edgesAdded != 2 {
			t.Errorf("edgesAdded = %d, want 2", edgesAdded)
		}

		cs, found, err := gdb.GetCrawlState(ctx, "p1")
		if err != nil || !found {
			t.Fatalf("expanded paper missing: found=%t err=%v", found, err)
		}
		if cs.State != model.ExpansionExpanded {
			t.Errorf("State = %v, want expanded", cs.State)
		}
		if cs.LastAttempt.IsZero() {
			t.Error("LastAttempt should be recorded")
		}
		if !cs.Satisfies(model.DirectionCitations) {
			t.Error("expansion should satisfy the direction it was fetched under")
		}
		if cs.Satisfies(model.DirectionReferences) {
			t.Error("expansion must not satisfy the other direction")
		}

		neighbors, err := gdb.Neighbors(ctx, "p1", model.DirectionCitations)
		if err != nil {
			t.Fatal(err)
		}
		if len(neighbors) != 2 {
			t.Errorf("neighbors = %d, want 2", len(neighbors))
		}
	})

	t.Run("replaying an expansion adds nothing", func(t *testing.T) {
		t.Parallel()

		gdb := openTestDB(t)
		exp := &model.Expansion{
			ID:        "p1",
			State:     model.ExpansionExpanded,
			Edges:     []model.Edge{{From: "p1", To: "p2", Kind: model.EdgeCitedBy}},
			Neighbors: []model.Paper{{ID: "p2", MinDepth: 1}},
		}
		if _, err := gdb.ApplyExpansion(ctx, exp); err != nil {
			t.Fatal(err)
		}

		edgesAdded, err := gdb.ApplyExpansion(ctx, exp)
		if err != nil {
			t.Fatal(err)
		}
		if edgesAdded != 0 {
			t.Errorf("edgesAdded = %d on replay, want 0", edgesAdded)
		}

		summary, err := gdb.Summarize(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if summary.TotalEdges != 1 {
			t.Errorf("TotalEdges = %d, want 1", summary.TotalEdges)
		}
	})
}

// TestNeighbors tests stored-edge lookup by direction.
func TestNeighbors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gdb := openTestDB(t)

	for _, edge := range []model.Edge{
		{From: "p1", To: "c1", Kind: model.EdgeCitedBy},
		{From: "p1", To: "c2", Kind: model.EdgeCitedBy, Influential: true},
		{From: "p1", To: "r1", Kind: model.EdgeCitesTo},
	} {
		if _, err := gdb.UpsertEdge(ctx, &edge); err != nil {
			t.Fatal(err)
		}
	}

	citations, err := gdb.Neighbors(ctx, "p1", model.DirectionCitations)
	if err != nil {
		t.Fatal(err)
	}
	if len(citations) != 2 {
		t.Errorf("citation edges = %d, want 2", len(citations))
	}

	references, err := gdb.Neighbors(ctx, "p1", model.DirectionReferences)
	if err != nil {
		t.Fatal(err)
	}
	if len(references) != 1 || references[0].To != "r1" {
		t.Errorf("reference edges = %+v, want one edge to r1", references)
	}

	none, err := gdb.Neighbors(ctx, "unknown", model.DirectionCitations)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("edges for unknown paper = %d, want 0", len(none))
	}
}

// TestCrawlRoots tests root provenance records.
func TestCrawlRoots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gdb := openTestDB(t)

	roots := []model.CrawlRoot{
		{PaperID: "abc", OriginalID: "DOI:10.1/x", Depth: 2, Direction: model.DirectionCitations},
		{PaperID: "def", OriginalID: "def", Depth: 1, Direction: model.DirectionReferences},
	}
	for i := range roots {
		if err := gdb.AddRoot(ctx, &roots[i]); err != nil {
			t.Fatal(err)
		}
	}

	got, err := gdb.ListRoots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("roots = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].PaperID != "def" {
		t.Errorf("first root = %s, want the most recent (def)", got[0].PaperID)
	}
	if got[1].OriginalID != "DOI:10.1/x" {
		t.Errorf("OriginalID = %q, want the pre-normalization form", got[1].OriginalID)
	}
	if got[0].Direction != model.DirectionReferences {
		t.Errorf("Direction = %v, want references", got[0].Direction)
	}
}

// TestSummarize tests graph-wide aggregation.
func TestSummarize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty graph", func(t *testing.T) {
		t.Parallel()

		gdb := openTestDB(t)
		summary, err := gdb.Summarize(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if summary.TotalPapers != 0 || summary.TotalEdges != 0 || summary.TotalRoots != 0 {
			t.Errorf("empty graph should have zero counts, got %+v", summary)
		}
		if summary.MaxObservedDepth != -1 {
			t.Errorf("MaxObservedDepth = %d, want -1 for empty graph", summary.MaxObservedDepth)
		}
	})

	t.Run("populated graph", func(t *testing.T) {
		t.Parallel()

		gdb := openTestDB(t)
		if err := gdb.AddRoot(ctx, &model.CrawlRoot{
			PaperID: "p1", OriginalID: "p1", Depth: 1, Direction: model.DirectionCitations,
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := gdb.ApplyExpansion(ctx, &model.Expansion{
			ID:    "p1",
			Depth: 0,
			State: model.ExpansionExpanded,
			Edges: []model.Edge{
				{From: "p1", To: "p2", Kind: model.EdgeCitedBy, Influential: true},
				{From: "p1", To: "p3", Kind: model.EdgeCitedBy},
			},
			Neighbors: []model.Paper{
				{ID: "p2", MinDepth: 1},
				{ID: "p3", MinDepth: 1},
			},
		}); err != nil {
			t.Fatal(err)
		}

		summary, err := gdb.Summarize(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if summary.TotalRoots != 1 {
			t.Errorf("TotalRoots = %d, want 1", summary.TotalRoots)
		}
		if summary.TotalPapers != 3 {
			t.Errorf("TotalPapers = %d, want 3", summary.TotalPapers)
		}
		if summary.TotalEdges != 2 {
			t.Errorf("TotalEdges = %d, want 2", summary.TotalEdges)
		}
		if summary.InfluentialEdges != 1 {
			t.Errorf("InfluentialEdges = %d, want 1", summary.InfluentialEdges)
		}
		if summary.StateCounts["expanded"] != 1 || summary.StateCounts["unexpanded"] != 2 {
			t.Errorf("StateCounts = %v, want 1 expanded / 2 unexpanded", summary.StateCounts)
		}
		if summary.DepthCounts[0] != 1 || summary.DepthCounts[1] != 2 {
			t.Errorf("DepthCounts = %v, want 1 at depth 0 and 2 at depth 1", summary.DepthCounts)
		}
		if summary.MaxObservedDepth != 1 {
			t.Errorf("MaxObservedDepth = %d, want 1", summary.MaxObservedDepth)
		}
	})
}

// TestApplyExpansionRollback verifies that a failed edge write aborts the
// whole transaction, using a mocked connection to force the failure.
func TestApplyExpansionRollback(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	gdb := &GraphDB{db: db, dbPath: "mock"}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO papers").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO edges").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err = gdb.ApplyExpansion(context.Background(), &model.Expansion{
		ID:    "p1",
		State: model.ExpansionExpanded,
		Edges: []model.Edge{{From: "p1", To: "p2", Kind: model.EdgeCitedBy}},
	})
	if err == nil {
		t.Fatal("expected error from failed edge write")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
