// Package indexing also drives the periodic batch that pulls ranked,
// unprocessed webpages out of the store, tokenizes them, and writes them to
// the search index. The driver loop uses the same bounded, semaphore-paced
// concurrency shape as internal/fetcher, applied to pushing documents
// instead of fetching URLs.
package indexing

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crawlstack/distsearch/internal/metrics"
	"github.com/crawlstack/distsearch/internal/searchstore"
	"github.com/crawlstack/distsearch/internal/store"
)

// Config controls the indexer's batch-pull driver.
type Config struct {
	BatchSize     int
	PollInterval  time.Duration
	MaxConcurrent int
	PaceDelay     time.Duration
	WriteRetries  int
	PullRetries   int
}

// DefaultConfig returns the standard indexer cadence: pull up to 10 rows
// every 30 seconds, 2 documents in flight at a time, 100ms paced between
// starts.
func DefaultConfig() Config {
	return Config{
		BatchSize:     10,
		PollInterval:  30 * time.Second,
		MaxConcurrent: 2,
		PaceDelay:     100 * time.Millisecond,
		WriteRetries:  3,
		PullRetries:   3,
	}
}

// Pipeline pulls ranked pages from the store and indexes them.
type Pipeline struct {
	cfg     Config
	store   *store.Store
	search  *searchstore.Client
	logger  *zap.Logger
	metrics *metrics.Indexer
}

// NewPipeline builds an indexing Pipeline.
func NewPipeline(cfg Config, s *store.Store, search *searchstore.Client, logger *zap.Logger, m *metrics.Indexer) *Pipeline {
	return &Pipeline{cfg: cfg, store: s, search: search, logger: logger, metrics: m}
}

// Run drives the batch-pull loop until ctx is cancelled. Whole-cycle errors
// are logged and counted; the next tick retries.
func (p *Pipeline) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	p.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

func (p *Pipeline) runCycle(ctx context.Context) {
	start := time.Now()
	if err := p.RunOnce(ctx); err != nil {
		p.logger.Error("index cycle failed", zap.Error(err))
		p.metrics.Errors.Inc()
	}
	p.metrics.Cycles.Inc()
	p.metrics.CycleDuration.Observe(time.Since(start).Seconds())
}

// RunOnce pulls a single batch and indexes it, bounding concurrency to
// MaxConcurrent and pacing starts by PaceDelay. Documents arrive from the
// store ordered by page_rank DESC and are started in that order.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	pages, err := p.pullWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("load pages to index: %w", err)
	}
	p.metrics.QueueSize.Set(float64(len(pages)))
	p.metrics.DocsCount.Set(float64(len(pages)))
	if len(pages) == 0 {
		return nil
	}

	semaphore := make(chan struct{}, p.cfg.MaxConcurrent)
	var wg sync.WaitGroup

	for _, page := range pages {
		page := page
		semaphore <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()
			p.processWithRetry(ctx, page)
		}()
		time.Sleep(p.cfg.PaceDelay)
	}
	wg.Wait()
	return nil
}

// pullWithRetry retries the batch pull on transient store errors with
// 100*n ms backoff plus jitter.
func (p *Pipeline) pullWithRetry(ctx context.Context) ([]store.Webpage, error) {
	retries := p.cfg.PullRetries
	if retries < 1 {
		retries = 1
	}
	var pages []store.Webpage
	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		pages, err = p.store.PagesToIndex(ctx, p.cfg.BatchSize)
		if err == nil {
			return pages, nil
		}
		if attempt < retries {
			backoff := time.Duration(100*attempt)*time.Millisecond +
				time.Duration(rand.Int63n(int64(50*time.Millisecond)))
			time.Sleep(backoff)
		}
	}
	return nil, err
}

func (p *Pipeline) processWithRetry(ctx context.Context, page store.Webpage) {
	start := time.Now()
	var err error
	for attempt := 1; attempt <= p.cfg.WriteRetries; attempt++ {
		if err = p.processOne(ctx, page); err == nil {
			p.metrics.DocsProcessed.Inc()
			p.metrics.DocProcessingDuration.Observe(time.Since(start).Seconds())
			return
		}
		if attempt < p.cfg.WriteRetries {
			time.Sleep(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	// The page stays processed=false and is retried next cycle.
	p.logger.Warn("document skipped after retries",
		zap.String("webpage_id", page.ID), zap.Error(err))
	p.metrics.Errors.Inc()
}

func (p *Pipeline) processOne(ctx context.Context, page store.Webpage) error {
	doc := BuildDocument(page)
	if err := p.search.IndexDocument(ctx, doc); err != nil {
		return err
	}
	return p.store.MarkProcessed(ctx, page.ID)
}

// BuildDocument tokenizes a Webpage's primary content and metadata into the
// search document format: body is the primary tokens merged with any meta
// tokens not already present, order-preserving.
func BuildDocument(page store.Webpage) searchstore.Document {
	title := nullString(page.Title)
	summary := nullString(page.ContentSummary)

	primary := Tokenize(strings.Join([]string{title, summary}, " "))
	meta := Tokenize(strings.Join([]string{
		nullString(page.MetaDescription),
		nullString(page.MetaKeywords),
		nullString(page.MetaTitle),
	}, " "))
	merged := MergeKeepOrder(primary, meta)

	return searchstore.Document{
		WebpageID:      page.ID,
		Title:          title,
		Body:           strings.Join(merged, " "),
		IndexedAt:      time.Now().UTC().Format(time.RFC3339),
		ContentSummary: summary,
		Keywords:       merged,
		PageRank:       page.PageRank,
		Metadata: searchstore.DocumentMetadata{
			Domain:          page.Domain,
			MetaDescription: nullString(page.MetaDescription),
			MetaKeywords:    nullString(page.MetaKeywords),
		},
	}
}

func nullString(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return v.String
}
