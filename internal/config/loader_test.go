package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/scholarbase/citetree/internal/model"
)

// writeConfigFile writes content to a temp file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// TestLoadConfigFile tests YAML parsing of all fields.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("all fields", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, `
depth: 3
direction: references
limit: 500
influential_only: true
papers:
  - arXiv:1706.03762
  - id: PMID:19872477
    title: A paper note that is documentation only
`)

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile failed: %v", err)
		}

		if f.Depth == nil || *f.Depth != 3 {
			t.Errorf("Depth = %v, want 3", f.Depth)
		}
		if f.Direction == nil || *f.Direction != "references" {
			t.Errorf("Direction = %v, want references", f.Direction)
		}
		if f.Limit == nil || *f.Limit != 500 {
			t.Errorf("Limit = %v, want 500", f.Limit)
		}
		if f.InfluentialOnly == nil || !*f.InfluentialOnly {
			t.Errorf("InfluentialOnly = %v, want true", f.InfluentialOnly)
		}

		seeds := f.SeedIDs()
		want := []string{"arXiv:1706.03762", "PMID:19872477"}
		if len(seeds) != len(want) {
			t.Fatalf("SeedIDs() = %v, want %v", seeds, want)
		}
		for i := range want {
			if seeds[i] != want[i] {
				t.Errorf("SeedIDs()[%d] = %q, want %q", i, seeds[i], want[i])
			}
		}
		if f.Papers[1].Title == "" {
			t.Error("object-form paper entry should keep its title")
		}
	})

	t.Run("empty file leaves fields absent", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "")
		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile failed: %v", err)
		}
		if f.Depth != nil || f.Direction != nil || f.Limit != nil || f.InfluentialOnly != nil {
			t.Error("empty config file should leave all fields nil")
		}
		if len(f.SeedIDs()) != 0 {
			t.Error("empty config file should have no seeds")
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid direction is rejected", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "direction: sideways\n")
		_, err := LoadConfigFile(path)
		if !errors.Is(err, model.ErrInvalidDirection) {
			t.Errorf("expected ErrInvalidDirection, got %v", err)
		}
	})

	t.Run("paper entry without id is rejected", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "papers:\n  - title: only a title\n")
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for paper entry without id")
		}
	})

	t.Run("malformed yaml is rejected", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "depth: [not a number\n")
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}

// TestFindConfigFile tests the explicit-path branch of config discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "depth: 1\n")
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile(%q) = %q, want the same path", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), "absent.yaml")
		if got := FindConfigFile(missing); got != "" {
			t.Errorf("FindConfigFile(%q) = %q, want empty", missing, got)
		}
	})
}
