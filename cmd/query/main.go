// Command query serves the fused BM25 + PageRank search API at GET /search,
// plus /metrics and /healthz.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crawlstack/distsearch/internal/api"
	"github.com/crawlstack/distsearch/internal/config"
	"github.com/crawlstack/distsearch/internal/logging"
	"github.com/crawlstack/distsearch/internal/searchstore"
	"github.com/crawlstack/distsearch/internal/store"
)

const serviceVersion = "0.1.0"

var cfgFile string

func main() {
	root := &cobra.Command{Use: "query", Short: "Serves the fused BM25 + PageRank search API"}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	if err := config.RegisterCommonFlags(root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	root.AddCommand(serveCmd())
	root.AddCommand(config.VersionCommand("query", serviceVersion))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the search HTTP API until terminated",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.LoadQueryConfig(cfgFile)
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

	registry := prometheus.NewRegistry()
	handler := &api.QueryHandler{Store: st, SearchClient: search, Logger: logger}

	router := api.NewEngine(logger, registry)
	api.SetupQueryRoutes(router, handler)
	server := api.NewServer(router, cfg.APIPort)

	logger.Info("query service starting", zap.Int("api_port", cfg.APIPort))
	return api.Run(ctx, server, logger)
}

func waitForShutdownSignal(cancel context.CancelFunc, logger *zap.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("shutdown signal received")
	cancel()
}
