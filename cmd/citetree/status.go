package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scholarbase/citetree/internal/config"
	"github.com/scholarbase/citetree/internal/database"
	"github.com/scholarbase/citetree/internal/report"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the stored citation graph",
		Long: `Status reports what the local database currently holds: paper and edge
counts, papers per expansion state, and papers per shortest discovery
depth. It never contacts the API.

Examples:
  # Human-readable summary
  citetree status

  # Machine-readable JSON
  citetree status --json

  # Markdown report written to a file
  citetree status --markdown --output report.md`,
		RunE: runStatusCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Emit the summary as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Emit the summary as Markdown")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().String("db", "",
		"Database file path (default: "+config.DefaultDBPath()+")")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if asJSON && asMarkdown {
		return config.ErrConflictingOutputFormats
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}

	gdb, err := database.Open(dbPath, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return err
	}
	defer gdb.Close() //nolint:errcheck // Read-only access

	summary, err := gdb.Summarize(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to summarize database: %w", err)
	}

	output := cmd.OutOrStdout()
	if outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // Best-effort close after explicit write
		output = f
	}

	writer := newStatusWriter(output, asJSON, asMarkdown)
	if _, err := writer.Write(summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// newStatusWriter picks the report format for the status command.
func newStatusWriter(output io.Writer, asJSON, asMarkdown bool) report.Writer {
	switch {
	case asJSON:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case asMarkdown:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output)
	}
}
