package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scholarbase/citetree/internal/database"
	"github.com/scholarbase/citetree/internal/model"
)

// TestNewRootsCmd tests the roots command creation.
func TestNewRootsCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootsCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "roots" {
			t.Errorf("expected use 'roots', got %q", cmd.Use)
		}
	})

	t.Run("has db flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("db") == nil {
			t.Fatal("expected db flag")
		}
	})
}

// TestRunRootsCmd tests the roots command execution.
func TestRunRootsCmd(t *testing.T) {
	t.Parallel()

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()
		dbPath := filepath.Join(t.TempDir(), "citetree.db")
		gdb, err := database.Open(dbPath, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if err := gdb.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}

		var buf bytes.Buffer
		cmd := NewRootsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db", dbPath})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No crawl roots") {
			t.Errorf("expected empty-database message, got %q", buf.String())
		}
	})

	t.Run("lists recorded roots", func(t *testing.T) {
		t.Parallel()
		dbPath := filepath.Join(t.TempDir(), "citetree.db")
		gdb, err := database.Open(dbPath, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}

		ctx := context.Background()
		paperID := strings.Repeat("a", 40)
		if err := gdb.AddRoot(ctx, &model.CrawlRoot{
			PaperID:    paperID,
			OriginalID: "ARXIV:1706.03762",
			Depth:      2,
			Direction:  model.DirectionCitations,
		}); err != nil {
			t.Fatalf("failed to add root: %v", err)
		}
		if err := gdb.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}

		var buf bytes.Buffer
		cmd := NewRootsCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db", dbPath})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, paperID) {
			t.Errorf("expected resolved paper ID in output, got %q", output)
		}
		if !strings.Contains(output, "ARXIV:1706.03762") {
			t.Errorf("expected original identifier in output, got %q", output)
		}
		if !strings.Contains(output, "citations") {
			t.Errorf("expected direction in output, got %q", output)
		}
	})

	t.Run("missing database", func(t *testing.T) {
		t.Parallel()
		cmd := NewRootsCmd()
		cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "no-such.db")})

		err := cmd.Execute()
		if !errors.Is(err, database.ErrDatabaseNotFound) {
			t.Errorf("expected ErrDatabaseNotFound, got %v", err)
		}
	})
}
