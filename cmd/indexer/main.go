// Command indexer drives the batch pipeline that pulls ranked, unprocessed
// webpages out of the store, tokenizes them, and writes them to the search
// index, and serves /metrics and /healthz.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crawlstack/distsearch/internal/api"
	"github.com/crawlstack/distsearch/internal/config"
	"github.com/crawlstack/distsearch/internal/indexing"
	"github.com/crawlstack/distsearch/internal/logging"
	"github.com/crawlstack/distsearch/internal/metrics"
	"github.com/crawlstack/distsearch/internal/searchstore"
	"github.com/crawlstack/distsearch/internal/store"
)

const serviceVersion = "0.1.0"

var cfgFile string

func main() {
	root := &cobra.Command{Use: "indexer", Short: "Tokenizes ranked webpages and writes them to the search index"}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	if err := config.RegisterCommonFlags(root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	root.AddCommand(serveCmd())
	root.AddCommand(config.VersionCommand("indexer", serviceVersion))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the indexing pipeline and HTTP metrics API until terminated",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.LoadIndexerConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Server.LogLevel, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := store.Open(cfg.Store.DatabaseURL, cfg.Store.MaxOpenConns)
	if err != nil {
		logger.Fatal("cannot open page store", zap.Error(err))
	}
	defer st.Close()
	if err := st.Migrate(context.Background()); err != nil {
		logger.Fatal("schema migration failed", zap.Error(err))
	}

	search, err := searchstore.NewClient(cfg.Store.ElasticsearchURL)
	if err != nil {
		logger.Fatal("cannot create search store client", zap.Error(err))
	}
	if err := search.EnsureIndex(context.Background()); err != nil {
		logger.Fatal("search store unreachable at boot", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForShutdownSignal(cancel, logger)

	m := metrics.NewIndexer()
	pipeline := indexing.NewPipeline(indexing.Config{
		BatchSize:     cfg.BatchSize,
		PollInterval:  cfg.PollInterval,
		MaxConcurrent: cfg.MaxConcurrent,
		PaceDelay:     cfg.PaceDelay,
		WriteRetries:  cfg.WriteRetries,
		PullRetries:   cfg.PullRetries,
	}, st, search, logger, m)

	go pipeline.Run(ctx)

	router := api.NewEngine(logger, m.Registry)
	server := api.NewServer(router, cfg.Server.MetricsPort)

	logger.Info("indexer service starting", zap.Int("metrics_port", cfg.Server.MetricsPort))
	return api.Run(ctx, server, logger)
}

func waitForShutdownSignal(cancel context.CancelFunc, logger *zap.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("shutdown signal received")
	cancel()
}
