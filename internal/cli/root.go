// Package cli provides the command-line interface for studysearch.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmviana/studysearch-go/internal/config"
	"github.com/gmviana/studysearch-go/internal/crawler"
	"github.com/gmviana/studysearch-go/internal/db"
	"github.com/gmviana/studysearch-go/internal/extract"
	"github.com/gmviana/studysearch-go/internal/index"
	"github.com/gmviana/studysearch-go/internal/llm"
	"github.com/gmviana/studysearch-go/internal/metrics"
	"github.com/gmviana/studysearch-go/internal/search"
	"github.com/gmviana/studysearch-go/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and db client
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	dbClient   *db.Client

	// Lazy-initialized LLM components
	embedder *llm.Embedder
	model    *llm.Model

	// In-process operation timings
	collector = metrics.NewCollector()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "studysearch",
	Short: "Web content acquisition and semantic search pipeline",
	Long: `Studysearch crawls administrator-configured sites, extracts meaningful
text through a tiered fallback strategy, chunks documents for retrieval,
and indexes them into a vector store for similarity search.

Search merges the curated study-material index with crawled site content.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// Load config and logger
		cfg = config.Load()
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level)
		slog.SetDefault(logger)

		// Connect to database
		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		// Initialize schema
		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// getEmbedder lazily initializes the embedding provider.
func getEmbedder() (*llm.Embedder, error) {
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg)
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
		logger.Debug("embedder initialized", "model", embedder.Model(), "dimension", embedder.Dimension())
	}
	return embedder, nil
}

// getModel lazily initializes the completion model.
func getModel() (*llm.Model, error) {
	if model == nil {
		var err error
		model, err = llm.NewModel(cfg)
		if err != nil {
			return nil, fmt.Errorf("init model: %w", err)
		}
	}
	return model, nil
}

// getPipeline assembles the crawl pipeline and its extractor. The caller
// must invoke the returned close function when done.
func getPipeline() (*service.Pipeline, func(), error) {
	emb, err := getEmbedder()
	if err != nil {
		return nil, nil, err
	}

	extractor := extract.New(extract.Config{
		UserAgent:      cfg.UserAgent,
		FetchTimeout:   cfg.FetchTimeout,
		RenderTimeout:  cfg.RenderTimeout,
		EnableHeadless: cfg.HeadlessRender,
		Metrics:        collector,
		Logger:         logger,
	})

	store := db.NewVectorStore(dbClient)
	frontier := crawler.New(extractor, cfg.UserAgent, cfg.FetchTimeout, logger)
	writer := index.NewWriter(store, emb, logger, index.WithMetrics(collector))

	return service.NewPipeline(frontier, writer, store, logger), extractor.Close, nil
}

// getAggregator assembles the search aggregator.
func getAggregator() (*search.Aggregator, error) {
	emb, err := getEmbedder()
	if err != nil {
		return nil, err
	}
	aggregator := search.NewAggregator(db.NewVectorStore(dbClient), emb, dbClient, logger)
	aggregator.SetMetrics(collector)
	return aggregator, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(sitesCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(jobsCmd)
}
