package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/scholarbase/citetree/internal/model"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".citetree.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// PaperEntry is one element of the config file's papers list. The YAML
// form is either a bare identifier string or a mapping with an id field
// and an optional, documentation-only title:
//
//	papers:
//	  - arXiv:1706.03762
//	  - id: PMID:19872477
//	    title: Human-readable note, never sent anywhere
type PaperEntry struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (p *PaperEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		p.ID = value.Value
		return nil
	}

	type plain PaperEntry
	var entry plain
	if err := value.Decode(&entry); err != nil {
		return err
	}
	if entry.ID == "" {
		return fmt.Errorf("paper entry missing 'id' field (line %d)", value.Line)
	}
	*p = PaperEntry(entry)
	return nil
}

// File represents the structure of the .citetree.yaml configuration file.
// Pointer fields distinguish "absent" from zero values so that file values
// only override defaults when actually present, and CLI flags override the
// file field-by-field.
type File struct {
	// Depth is the maximum traversal depth.
	Depth *int `yaml:"depth,omitempty"`

	// Direction is "citations" or "references".
	Direction *string `yaml:"direction,omitempty"`

	// Limit is the maximum neighbors fetched per paper.
	Limit *int `yaml:"limit,omitempty"`

	// InfluentialOnly keeps only influential edges.
	InfluentialOnly *bool `yaml:"influential_only,omitempty"`

	// Papers are the seed identifiers.
	Papers []PaperEntry `yaml:"papers,omitempty"`
}

// SeedIDs returns the identifiers of the papers list.
func (f *File) SeedIDs() []string {
	ids := make([]string, 0, len(f.Papers))
	for _, p := range f.Papers {
		ids = append(ids, p.ID)
	}
	return ids
}

// LoadConfigFile loads crawl settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound; callers decide
// whether that matters based on whether the path was explicitly given.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if f.Direction != nil {
		if _, err := model.ParseDirection(*f.Direction); err != nil {
			return nil, err
		}
	}

	return &f, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .citetree.yaml in the current directory
// 3. Look for .citetree.yaml in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
