package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scholarbase/citetree/internal/config"
	"github.com/scholarbase/citetree/internal/database"
)

// NewRootsCmd creates the roots command.
func NewRootsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roots",
		Short: "List the seed papers of previous crawls",
		Long: `Roots lists every seed paper recorded by previous add runs, newest
first, together with the identifier each seed was originally given as,
the requested depth, and the traversal direction.`,
		RunE: runRootsCmd,
	}

	cmd.Flags().String("db", "",
		"Database file path (default: "+config.DefaultDBPath()+")")

	return cmd
}

// runRootsCmd executes the roots command.
func runRootsCmd(cmd *cobra.Command, _ []string) error {
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

	roots, err := gdb.ListRoots(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list crawl roots: %w", err)
	}
	if len(roots) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No crawl roots recorded yet. Run 'citetree add <paper-id>' first.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ADDED\tPAPER ID\tGIVEN AS\tDEPTH\tDIRECTION")
	for _, root := range roots {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			root.AddedAt.Format("2006-01-02 15:04"),
			root.PaperID,
			root.OriginalID,
			root.Depth,
			root.Direction,
		)
	}
	return w.Flush()
}
