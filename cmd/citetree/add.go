package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scholarbase/citetree/internal/api"
	"github.com/scholarbase/citetree/internal/config"
	"github.com/scholarbase/citetree/internal/crawler"
	"github.com/scholarbase/citetree/internal/database"
	"github.com/scholarbase/citetree/internal/log"
	"github.com/scholarbase/citetree/internal/model"
)

// NewAddCmd creates the add command.
func NewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [paper-id...]",
		Short: "Crawl the citation graph around one or more papers",
		Long: `Add crawls the citation graph outward from the given seed papers and
stores every discovered paper and citation edge in the local database.

Accepted identifier forms:
  649def34f8be52c8b66281af98ae884c09aef38b   native Semantic Scholar ID
  DOI:10.18653/v1/N18-3011                   DOI (bare 10.x/... also works)
  ARXIV:2106.15928                           arXiv ID
  PMID:19872477                              PubMed ID
  CorpusId:215416146                         Semantic Scholar corpus ID
  https://www.semanticscholar.org/paper/...  paper URL

Re-running add is cheap: papers whose neighborhoods are already stored
are served from the database, so interrupted crawls resume where they
left off and deepening a crawl fetches only the new frontier.

Examples:
  # Crawl papers citing a seed, two levels deep (the default)
  citetree add ARXIV:1706.03762

  # Follow references instead of citations
  citetree add --direction references DOI:10.1038/nature14539

  # Deepen a previous crawl; only the frontier is fetched
  citetree add --depth 3 ARXIV:1706.03762

  # Restrict to influential citations, 50 per paper
  citetree add --influential-only --limit 50 ARXIV:1706.03762

  # Crawl the papers listed in .citetree.yaml
  citetree add`,
		Args: cobra.ArbitraryArgs,
		RunE: runAddCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: "+config.DefaultConfigFile+" in current or home directory)")
	cmd.Flags().String("db", "",
		"Database file path (default: "+config.DefaultDBPath()+")")
	cmd.Flags().IntP("depth", "d", config.DefaultDepth,
		"Maximum crawl depth (0 = record seeds only)")
	cmd.Flags().String("direction", model.DirectionCitations.String(),
		"Traversal direction: citations or references")
	cmd.Flags().IntP("limit", "l", config.DefaultLimit,
		"Maximum neighbors fetched per paper (0 = unbounded)")
	cmd.Flags().Bool("influential-only", false,
		"Follow only edges flagged influential by the API")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Concurrent expansions per depth level")
	cmd.Flags().Bool("retry-failed", false,
		"Re-attempt papers a previous run marked failed")

	return cmd
}

// runAddCmd executes the add command.
func runAddCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildAddConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Stop cleanly on interrupt: in-flight transactions finish, the
	// partial graph stays resumable.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAdd(ctx, cmd, cfg, logger)
}

// buildAddConfig resolves the crawl configuration: defaults, then the
// config file's values, then explicitly set CLI flags, each layer
// overriding the previous field-by-field.
func buildAddConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.APIKey = os.Getenv(config.APIKeyEnv)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Layer 2: config file, when present.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	var configSeeds []string
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if file.Depth != nil {
			cfg.Depth = *file.Depth
		}
		if file.Direction != nil {
			cfg.Direction, err = model.ParseDirection(*file.Direction)
			if err != nil {
				return nil, err
			}
		}
		if file.Limit != nil {
			cfg.Limit = *file.Limit
		}
		if file.InfluentialOnly != nil {
			cfg.InfluentialOnly = *file.InfluentialOnly
		}
		configSeeds = file.SeedIDs()
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	// Layer 3: flags the user actually set.
	if cmd.Flags().Changed("depth") {
		if cfg.Depth, err = cmd.Flags().GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("direction") {
		direction, err := cmd.Flags().GetString("direction")
		if err != nil {
			return nil, err
		}
		if cfg.Direction, err = model.ParseDirection(direction); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("limit") {
		if cfg.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("influential-only") {
		if cfg.InfluentialOnly, err = cmd.Flags().GetBool("influential-only"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("workers") {
		if cfg.Workers, err = cmd.Flags().GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if cfg.RetryFailed, err = cmd.Flags().GetBool("retry-failed"); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("db") {
		if cfg.DBPath, err = cmd.Flags().GetString("db"); err != nil {
			return nil, err
		}
	}

	// Seeds are the union of the config file's papers and the CLI
	// arguments, config entries first, deduplicated.
	cfg.Seeds = mergeSeeds(configSeeds, args)

	return cfg, nil
}

// mergeSeeds unions the config-file and CLI seed lists, preserving
// order and dropping exact duplicates.
func mergeSeeds(fromConfig, fromArgs []string) []string {
	seen := make(map[string]bool, len(fromConfig)+len(fromArgs))
	merged := make([]string, 0, len(fromConfig)+len(fromArgs))
	for _, id := range append(append([]string{}, fromConfig...), fromArgs...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, id)
	}
	return merged
}

// runAdd executes the crawl.
func runAdd(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", len(cfg.Seeds),
		"depth", cfg.Depth,
		"direction", cfg.Direction.String(),
		"limit", cfg.Limit,
		"workers", cfg.Workers,
	)

	gdb, err := database.Open(cfg.DBPath, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer gdb.Close() //nolint:errcheck // Read-mostly close on exit
	logger.Info("database opened", "path", cfg.DBPath)

	client := api.NewClient(api.WithAPIKey(cfg.APIKey))
	sched := crawler.NewScheduler(client, gdb,
		crawler.WithMaxDepth(cfg.Depth),
		crawler.WithDirection(cfg.Direction),
		crawler.WithPerNodeLimit(cfg.Limit),
		crawler.WithInfluentialOnly(cfg.InfluentialOnly),
		crawler.WithWorkers(cfg.Workers),
		crawler.WithRetryFailed(cfg.RetryFailed),
		crawler.WithRetryConfig(retryConfig()),
		crawler.WithLogger(logger),
	)

	stats, err := sched.Crawl(ctx, cfg.Seeds)
	if stats != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Crawl finished: %s\n", stats)
	}
	if err != nil {
		return fmt.Errorf("crawl incomplete: %w", err)
	}
	return nil
}

// retryConfig builds the fetch retry budget from the documented defaults.
func retryConfig() api.RetryConfig {
	cfg := api.DefaultRetryConfig()
	cfg.MaxAttempts = config.DefaultMaxRetries
	cfg.InitialBackoff = config.DefaultInitialBackoff
	cfg.MaxBackoff = config.DefaultMaxBackoff
	return cfg
}
