package frontier

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/url"
	"time"

	"github.com/crawlstack/distsearch/internal/fetcher"
	"github.com/crawlstack/distsearch/internal/htmlparse"
	"github.com/crawlstack/distsearch/internal/robots"
	"github.com/crawlstack/distsearch/internal/store"
)

func nullInt32(v int) sql.NullInt32 {
	return sql.NullInt32{Int32: int32(v), Valid: true}
}

// Event reports the outcome of one fetch/parse attempt, emitted on a
// best-effort channel so external observers (job.EventLog, which writes
// each event to the structured log) can follow per-URL progress. The job
// registry does not read it; it polls QueueSize and PagesCrawled instead.
type Event struct {
	URL     string
	Depth   int
	Outcome string // "stored", "gated", "failed", "disallowed"
}

const (
	OutcomeStored     = "stored"
	OutcomeGated      = "gated"
	OutcomeFailed     = "failed"
	OutcomeDisallowed = "disallowed"
)

func marshalMetadata(m *htmlparse.Metadata) (json.RawMessage, error) {
	return json.Marshal(m)
}

// Config controls one Frontier's crawl behavior.
type Config struct {
	SeedURLs           []string
	ConcurrentRequests int
	MaxDepth           int
	MaxPages           int
	MinQualityScore    int
	Policy             DomainPolicy
	LinkBatchSize      int
	LinkBatchRetries   int
	ReEntryInterval    time.Duration
	UserAgent          string
	FetchDelay         time.Duration
	MaxContentSize     int64
}

// DefaultConfig returns reasonable defaults: quality gate 40, link batches
// of 50 with 3 retries, and a 5 minute re-entry interval between cycles.
func DefaultConfig() Config {
	return Config{
		ConcurrentRequests: 8,
		MaxDepth:           16,
		MaxPages:           1000,
		MinQualityScore:    40,
		LinkBatchSize:      50,
		LinkBatchRetries:   3,
		ReEntryInterval:    5 * time.Minute,
		UserAgent:          "distsearchbot/1.0",
	}
}

// Frontier owns the shared queue and visited set and drives the
// fetch/parse/persist loop over them.
type Frontier struct {
	cfg     Config
	queue   *Queue
	visited *VisitedSet
	fetcher *fetcher.Fetcher
	robots  *robots.Cache
	store   *store.Store
	logger  *log.Logger

	errorCount int
	events     chan Event
}

// New builds a Frontier with its own fetcher and robots cache.
func New(cfg Config, s *store.Store, logger *log.Logger) *Frontier {
	maxContentSize := cfg.MaxContentSize
	if maxContentSize <= 0 {
		maxContentSize = 10 << 20
	}
	f := fetcher.New(fetcher.Config{
		UserAgent:             cfg.UserAgent,
		RequestTimeout:        30 * time.Second,
		ConnectTimeout:        10 * time.Second,
		MaxRedirects:          10,
		MaxContentSize:        maxContentSize,
		DelayMs:               cfg.FetchDelay,
		MaxConcurrentRequests: cfg.ConcurrentRequests,
	})
	return &Frontier{
		cfg:     cfg,
		queue:   NewQueue(),
		visited: NewVisitedSet(),
		fetcher: f,
		robots:  robots.New(f),
		store:   s,
		logger:  logger,
		events:  make(chan Event, 256),
	}
}

// Events returns a receive-only channel of per-URL outcomes. Sends are
// best-effort (a full buffer drops the event rather than blocking the crawl
// loop); callers that need every event should drain promptly.
func (fr *Frontier) Events() <-chan Event { return fr.events }

func (fr *Frontier) emit(e Event) {
	select {
	case fr.events <- e:
	default:
	}
}

// QueueSize reports the number of URLs currently queued, for job-status
// polling.
func (fr *Frontier) QueueSize() int { return fr.queue.Len() }

// PagesCrawled reports the number of URLs visited so far by this Frontier
// instance, for job-status polling.
func (fr *Frontier) PagesCrawled() int { return fr.visited.Size() }

// ErrorCount reports the number of fetch failures observed so far, for
// metrics reporting.
func (fr *Frontier) ErrorCount() int { return fr.errorCount }

// RunCycle seeds the queue from config and drains it until the queue is
// empty or this cycle has crawled MaxPages pages, whichever comes first. It
// returns the number of pages successfully crawled during this call, which
// is always bounded by MaxPages regardless of how many URLs the Frontier's
// cumulative, never-reset visited set already holds from earlier cycles —
// a Frontier that keeps running cycle after cycle (the crawler's continuous
// loop) must keep making progress every cycle, not just until the visited
// set first crosses MaxPages.
func (fr *Frontier) RunCycle(ctx context.Context) (int, error) {
	fr.seed()
	pagesCrawled := 0

	for !fr.queue.Empty() && pagesCrawled < fr.cfg.MaxPages {
		if ctx.Err() != nil {
			return pagesCrawled, ctx.Err()
		}
		// Bound the batch by the pages left in this cycle's budget so a
		// full drain can't overshoot MaxPages.
		batchSize := fr.cfg.ConcurrentRequests
		if remaining := fr.cfg.MaxPages - pagesCrawled; remaining < batchSize {
			batchSize = remaining
		}
		batch := fr.queue.Drain(batchSize, fr.visited, fr.cfg.MaxDepth)
		if len(batch) == 0 {
			break
		}

		items := make([]fetcher.Item, len(batch))
		for i, b := range batch {
			items[i] = fetcher.Item{URL: b.URL, Depth: b.Depth}
		}
		results := fr.fetcher.FetchBatch(ctx, items)

		for _, result := range results {
			fr.handleResult(ctx, result)
			if result.Failure == nil {
				pagesCrawled++
			}
		}
	}
	return pagesCrawled, nil
}

func (fr *Frontier) handleResult(ctx context.Context, result fetcher.Result) {
	if result.Failure != nil {
		fr.visited.Add(result.URL)
		fr.errorCount++
		fr.emit(Event{URL: result.URL, Depth: result.Depth, Outcome: OutcomeFailed})
		return
	}

	target, err := url.Parse(result.URL)
	if err == nil {
		allowed := fr.robots.Allowed(ctx, target, fr.cfg.UserAgent)
		if !allowed {
			fr.visited.Add(result.URL)
			fr.emit(Event{URL: result.URL, Depth: result.Depth, Outcome: OutcomeDisallowed})
			return
		}
	}

	fr.visited.Add(result.URL)
	fr.processPage(ctx, result)
}

func (fr *Frontier) processPage(ctx context.Context, result fetcher.Result) {
	domain, err := Domain(result.URL)
	if err != nil {
		fr.logger.Printf("frontier: cannot derive domain for %s: %v", result.URL, err)
		return
	}

	page, err := htmlparse.Parse(result.URL, domain, result.Status, result.Body, true)
	if err != nil {
		fr.logger.Printf("frontier: parse failed for %s: %v", result.URL, err)
		return
	}

	score := Score(page, len(page.Links), fr.cfg.Policy.Priority)
	var webpageID string
	if score >= fr.cfg.MinQualityScore {
		id, err := fr.storePage(ctx, page)
		if err != nil {
			fr.logger.Printf("frontier: storing %s failed, abandoning page: %v", result.URL, err)
			return
		}
		webpageID = id
	}

	// Discovered links are always enqueued, even for pages below the
	// quality gate, so the crawl stays connected through pass-through
	// hubs. Link rows themselves require a stored source webpage id, so
	// they are only persisted when the source page was actually stored.
	fr.enqueueLinks(page, result.Depth)
	if webpageID != "" {
		fr.persistLinks(ctx, webpageID, page.Links)
		fr.emit(Event{URL: result.URL, Depth: result.Depth, Outcome: OutcomeStored})
	} else {
		fr.emit(Event{URL: result.URL, Depth: result.Depth, Outcome: OutcomeGated})
	}
}

func (fr *Frontier) storePage(ctx context.Context, page *htmlparse.ParsedPage) (string, error) {
	w := &store.Webpage{
		URL:    page.URL,
		Domain: page.Domain,
		Status: nullInt32(page.Status),
	}
	if page.Title != nil {
		w.Title.String, w.Title.Valid = *page.Title, true
	}
	if page.Content != nil {
		summary := htmlparse.Summarize(*page.Content)
		w.ContentSummary.String, w.ContentSummary.Valid = summary, true
	}
	if page.MetaTitle != nil {
		w.MetaTitle.String, w.MetaTitle.Valid = *page.MetaTitle, true
	}
	if page.MetaDescription != nil {
		w.MetaDescription.String, w.MetaDescription.Valid = *page.MetaDescription, true
	}
	if page.MetaKeywords != nil {
		w.MetaKeywords.String, w.MetaKeywords.Valid = *page.MetaKeywords, true
	}
	w.ContentHash.String, w.ContentHash.Valid = page.ContentHash, true

	if page.Metadata != nil && !page.Metadata.Empty() {
		if raw, err := marshalMetadata(page.Metadata); err == nil {
			w.Metadata = raw
		}
	}

	if err := fr.store.UpsertWebpage(ctx, w); err != nil {
		return "", err
	}
	return w.ID, nil
}

// enqueueLinks normalizes and domain-filters a page's links, enqueueing
// each eligible, not-yet-visited target.
func (fr *Frontier) enqueueLinks(page *htmlparse.ParsedPage, sourceDepth int) {
	if sourceDepth >= fr.cfg.MaxDepth {
		return
	}
	for _, link := range page.Links {
		normalized, err := Normalize(link.URL)
		if err != nil {
			continue
		}
		targetDomain, err := Domain(normalized)
		if err != nil || !fr.cfg.Policy.Allows(targetDomain) {
			continue
		}
		if fr.visited.Contains(normalized) {
			continue
		}

		item := Item{URL: normalized, Depth: sourceDepth + 1}
		if fr.cfg.Policy.IsPriority(targetDomain) {
			fr.queue.PushFront(item)
		} else {
			fr.queue.PushBack(item)
		}
	}
}

// persistLinks normalizes and domain-filters a page's links a second time
// against the now-known source webpage id, then batches the inserts.
func (fr *Frontier) persistLinks(ctx context.Context, webpageID string, links []htmlparse.Link) {
	var batch []store.Link
	for _, link := range links {
		normalized, err := Normalize(link.URL)
		if err != nil {
			continue
		}
		targetDomain, err := Domain(normalized)
		if err != nil || !fr.cfg.Policy.Allows(targetDomain) {
			continue
		}

		l := store.Link{SourceWebpageID: webpageID, TargetURL: normalized}
		if link.AnchorText != nil {
			l.AnchorText.String, l.AnchorText.Valid = *link.AnchorText, true
		}
		batch = append(batch, l)
	}
	fr.insertLinksWithRetry(ctx, batch)
}

func (fr *Frontier) insertLinksWithRetry(ctx context.Context, links []store.Link) {
	for i := 0; i < len(links); i += fr.cfg.LinkBatchSize {
		end := i + fr.cfg.LinkBatchSize
		if end > len(links) {
			end = len(links)
		}
		fr.insertBatchWithRetry(ctx, links[i:end])
	}
}

func (fr *Frontier) insertBatchWithRetry(ctx context.Context, batch []store.Link) {
	var err error
	for attempt := 1; attempt <= fr.cfg.LinkBatchRetries; attempt++ {
		if err = fr.store.InsertLinks(ctx, batch); err == nil {
			return
		}
		time.Sleep(time.Duration(100*attempt) * time.Millisecond)
	}
	fr.logger.Printf("frontier: link batch abandoned after %d attempts: %v", fr.cfg.LinkBatchRetries, err)
}

func (fr *Frontier) seed() {
	for _, raw := range fr.cfg.SeedURLs {
		normalized, err := Normalize(raw)
		if err != nil {
			fr.logger.Printf("frontier: skipping invalid seed %q: %v", raw, err)
			continue
		}
		if fr.visited.Contains(normalized) {
			continue
		}
		fr.queue.PushBack(Item{URL: normalized, Depth: 0})
	}
}
