package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scholarbase/citetree/internal/config"
	"github.com/scholarbase/citetree/internal/crawler"
	"github.com/scholarbase/citetree/internal/database"
	"github.com/scholarbase/citetree/internal/model"
)

// Exit codes. Partial results are persisted before a non-zero exit, so
// a failed run can be resumed.
const (
	exitOK = 0
	// exitError covers unexpected failures (store errors, I/O).
	exitError = 1
	// exitInvalidInput covers unusable invocations: bad identifiers,
	// bad flags, missing database.
	exitInvalidInput = 2
	// exitSeedFailed means at least one seed could not be resolved
	// after retries; the crawl for the remaining seeds completed.
	exitSeedFailed = 3
)

// NewRootCmd creates the root command for citetree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "citetree",
		Short: "Crawl and store citation graphs from Semantic Scholar",
		Long: `citetree builds a local citation graph around papers you care about.

Starting from one or more seed papers, it walks the Semantic Scholar
citation graph breadth-first up to a configurable depth and stores every
paper and citation edge in a local SQLite database. Crawls are
resumable: interrupting and re-running a crawl re-fetches nothing that
is already stored, and deepening a crawl fetches only the new frontier.

Set ` + config.APIKeyEnv + ` to use an API key for higher rate limits.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAddCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewRootsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and maps errors to exit codes.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode classifies an error into the documented exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, crawler.ErrSeedFailed):
		return exitSeedFailed
	case isInvalidInput(err):
		return exitInvalidInput
	default:
		return exitError
	}
}

// isInvalidInput reports whether the error stems from an unusable
// invocation rather than a runtime failure.
func isInvalidInput(err error) bool {
	for _, sentinel := range []error{
		config.ErrNoSeeds,
		config.ErrInvalidDepth,
		config.ErrInvalidLimit,
		config.ErrInvalidWorkers,
		config.ErrNoDBPath,
		config.ErrConflictingOutputFormats,
		config.ErrConfigNotFound,
		model.ErrEmptyPaperID,
		model.ErrInvalidPaperID,
		model.ErrInvalidDirection,
		crawler.ErrNoValidSeeds,
		database.ErrDatabaseNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
