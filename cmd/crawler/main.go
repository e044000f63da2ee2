// Command crawler runs the frontier-and-fetcher service: it drives the
// continuous crawl loop and serves the /crawl, /job-status, /metrics, and
// /healthz HTTP API.
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
	"github.com/crawlstack/distsearch/internal/frontier"
	"github.com/crawlstack/distsearch/internal/job"
	"github.com/crawlstack/distsearch/internal/logging"
	"github.com/crawlstack/distsearch/internal/metrics"
	"github.com/crawlstack/distsearch/internal/searchstore"
	"github.com/crawlstack/distsearch/internal/store"
)

const serviceVersion = "0.1.0"

var cfgFile string

func main() {
	root := &cobra.Command{Use: "crawler", Short: "Politeness-aware concurrent web crawler and frontier"}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	if err := config.RegisterCommonFlags(root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	root.AddCommand(serveCmd())
	root.AddCommand(config.VersionCommand("crawler", serviceVersion))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the crawl loop and HTTP API until terminated",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.LoadCrawlerConfig(cfgFile)
	if err != nil {
		// Missing DATABASE_URL is a fatal startup error.
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

	m := metrics.NewCrawler()
	jobs := job.NewRegistry()

	frontierCfg := frontier.Config{
		SeedURLs:           cfg.SeedURLs,
		ConcurrentRequests: cfg.ConcurrentRequests,
		MaxDepth:           cfg.MaxDepth,
		MaxPages:           cfg.MaxPages,
		MinQualityScore:    cfg.MinQualityScore,
		Policy: frontier.DomainPolicy{
			Blocked:  cfg.BlockedDomains,
			Allowed:  cfg.AllowedDomains,
			Priority: cfg.PriorityDomains,
		},
		LinkBatchSize:    cfg.LinkBatchSize,
		LinkBatchRetries: cfg.LinkBatchRetries,
		ReEntryInterval:  cfg.ReEntryInterval,
		UserAgent:        cfg.UserAgent,
		FetchDelay:       cfg.FetchDelay,
		MaxContentSize:   cfg.MaxContentSize,
	}
	fr := frontier.New(frontierCfg, st, zap.NewStdLog(logger))

	events := job.NewEventLog()
	go events.Watch(fr.Events())
	go events.LogTo(logger)

	go runSeedCrawlLoop(ctx, fr, frontierCfg.ReEntryInterval, m, logger)

	handler := &api.CrawlerHandler{
		Store:          st,
		Search:         search,
		Jobs:           jobs,
		Metrics:        m,
		Logger:         logger,
		FrontierConfig: frontierCfg,
	}

	router := api.NewEngine(logger, m.Registry)
	api.SetupCrawlerRoutes(router, handler)
	server := api.NewServer(router, cfg.APIPort)

	logger.Info("crawler service starting", zap.Int("api_port", cfg.APIPort))
	return api.Run(ctx, server, logger)
}

// runSeedCrawlLoop drives the process's own continuous crawl of the
// configured seed URLs, re-entering every reEntryInterval and updating
// metrics at each cycle boundary. Each call to fr.RunCycle is bounded by
// its own MaxPages regardless of how many pages earlier cycles crawled, so
// the loop keeps making progress cycle after cycle instead of stalling
// once the Frontier's cumulative visited count first reaches MaxPages.
func runSeedCrawlLoop(ctx context.Context, fr *frontier.Frontier, reEntryInterval time.Duration, m *metrics.Crawler, logger *zap.Logger) {
	var lastErrors int
	for {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		pagesCrawled, err := fr.RunCycle(ctx)
		if err != nil {
			logger.Error("crawl cycle failed", zap.Error(err))
		}
		m.Cycles.Inc()
		m.CycleDuration.Observe(time.Since(start).Seconds())
		m.QueueSize.Set(float64(fr.QueueSize()))
		m.PagesCrawled.Add(float64(pagesCrawled))

		if errs := fr.ErrorCount(); errs > lastErrors {
			m.Errors.Add(float64(errs - lastErrors))
			lastErrors = errs
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reEntryInterval):
		}
	}
}

func waitForShutdownSignal(cancel context.CancelFunc, logger *zap.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("shutdown signal received")
	cancel()
}
