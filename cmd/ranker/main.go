// Command ranker periodically rebuilds the link graph and recomputes
// PageRank over it, then serves /metrics and /healthz.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crawlstack/distsearch/internal/api"
	"github.com/crawlstack/distsearch/internal/config"
	"github.com/crawlstack/distsearch/internal/logging"
	"github.com/crawlstack/distsearch/internal/metrics"
	"github.com/crawlstack/distsearch/internal/rank"
	"github.com/crawlstack/distsearch/internal/store"
)

const serviceVersion = "0.1.0"

var cfgFile string

func main() {
	root := &cobra.Command{Use: "ranker", Short: "Recomputes PageRank over the crawled link graph"}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	if err := config.RegisterCommonFlags(root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	root.AddCommand(serveCmd())
	root.AddCommand(config.VersionCommand("ranker", serviceVersion))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the rank cycle loop and HTTP metrics API until terminated",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.LoadRankerConfig(cfgFile)
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForShutdownSignal(cancel, logger)

	m := metrics.NewRanker()
	go runRankCycleLoop(ctx, st, cfg.CycleInterval, m, logger)

	router := api.NewEngine(logger, m.Registry)
	server := api.NewServer(router, cfg.Server.MetricsPort)

	logger.Info("ranker service starting", zap.Int("metrics_port", cfg.Server.MetricsPort))
	return api.Run(ctx, server, logger)
}

// runRankCycleLoop rebuilds the link graph and recomputes PageRank every
// CycleInterval, re-reading the full link edge set each time.
func runRankCycleLoop(ctx context.Context, st *store.Store, interval time.Duration, m *metrics.Ranker, logger *zap.Logger) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := runRankCycle(ctx, st, m, logger); err != nil {
			logger.Error("rank cycle failed", zap.Error(err))
			m.Errors.Inc()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func runRankCycle(ctx context.Context, st *store.Store, m *metrics.Ranker, logger *zap.Logger) error {
	start := time.Now()

	edges, err := st.AllLinkEdges(ctx)
	if err != nil {
		return fmt.Errorf("load link edges: %w", err)
	}

	graph := rank.BuildGraph(edges)
	nodes := graph.Nodes()
	m.GraphSize.Set(float64(len(nodes)))
	m.PagesToRank.Set(float64(len(graph.IsWebpage)))

	iterStart := time.Now()
	ranks := rank.Compute(graph)
	m.IterationDuration.Observe(time.Since(iterStart).Seconds() / float64(rank.Iterations))
	m.ConvergenceIterations.Set(float64(rank.Iterations))

	webpageRanks := rank.WebpageRanks(graph, ranks)
	if err := st.UpdateRanks(ctx, webpageRanks); err != nil {
		return fmt.Errorf("persist ranks: %w", err)
	}

	if len(webpageRanks) > 0 {
		var sum float64
		for _, r := range webpageRanks {
			sum += r
		}
		m.AveragePageRank.Set(sum / float64(len(webpageRanks)))
	}

	m.CalculationsComplete.Inc()
	m.Cycles.Inc()
	m.CalculationDuration.Observe(time.Since(start).Seconds())

	logger.Info("rank cycle complete",
		zap.Int("nodes", len(nodes)),
		zap.Int("webpages_ranked", len(webpageRanks)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func waitForShutdownSignal(cancel context.CancelFunc, logger *zap.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("shutdown signal received")
	cancel()
}
