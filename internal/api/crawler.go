package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crawlstack/distsearch/internal/frontier"
	"github.com/crawlstack/distsearch/internal/fusion"
	"github.com/crawlstack/distsearch/internal/job"
	"github.com/crawlstack/distsearch/internal/metrics"
	"github.com/crawlstack/distsearch/internal/searchstore"
	"github.com/crawlstack/distsearch/internal/store"
)

// searchPrecheckLimit bounds the existing-results precheck search before a crawl is dispatched.
const searchPrecheckLimit = 10

// CrawlerHandler serves POST /crawl and GET /job-status/{job_id}.
type CrawlerHandler struct {
	Store   *store.Store
	Search  *searchstore.Client
	Jobs    *job.Registry
	Metrics *metrics.Crawler
	Logger  *zap.Logger

	FrontierConfig frontier.Config
}

// CrawlRequest is the POST /crawl request body.
type CrawlRequest struct {
	Query      string `json:"query"`
	MaxDepth   int    `json:"max_depth"`
	MaxPages   int    `json:"max_pages"`
	Priority   *bool  `json:"priority,omitempty"`
	ForceCrawl bool   `json:"force_crawl"`
}

// CrawlResponse is the POST /crawl response body.
type CrawlResponse struct {
	Status               string   `json:"status"`
	JobID                string   `json:"job_id,omitempty"`
	ExistingResultsCount int      `json:"existing_results_count"`
	SuggestedQueries     []string `json:"suggested_queries"`
}

// Crawl handles POST /crawl: a search_webpages precheck, then either a
// no_results response with suggestions, or a dispatched background crawl.
func (h *CrawlerHandler) Crawl(c *gin.Context) {
	var req CrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Message: err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Message: "query must not be empty"})
		return
	}

	existing, err := fusion.Search(c.Request.Context(), h.Search, h.Store, req.Query, searchPrecheckLimit)
	if err != nil {
		h.Logger.Error("crawl precheck search failed", zap.Error(err), zap.String("query", req.Query))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Status: "error", Message: err.Error()})
		return
	}

	if len(existing) == 0 && !req.ForceCrawl {
		c.JSON(http.StatusOK, CrawlResponse{
			Status:           "no_results",
			SuggestedQueries: SuggestQueries(req.Query),
		})
		return
	}

	jobID := h.dispatch(req)
	c.JSON(http.StatusOK, CrawlResponse{
		Status:               "queued",
		JobID:                jobID,
		ExistingResultsCount: len(existing),
		SuggestedQueries:     []string{},
	})
}

// dispatch builds a query-scoped Frontier and runs one crawl cycle in the
// background, registering it with the job registry so GET /job-status can
// track it.
func (h *CrawlerHandler) dispatch(req CrawlRequest) string {
	cfg := h.FrontierConfig
	cfg.SeedURLs = frontier.SeedURLsForQuery(req.Query)
	if req.MaxDepth > 0 {
		cfg.MaxDepth = req.MaxDepth
	}
	if req.MaxPages > 0 {
		cfg.MaxPages = req.MaxPages
	}
	// Priority (default true) promotes the seed domains, so links back into
	// them jump to the front of the frontier queue.
	if req.Priority == nil || *req.Priority {
		cfg.Policy.Priority = append(cfg.Policy.Priority, seedDomains(cfg.SeedURLs)...)
	}

	fr := frontier.New(cfg, h.Store, zap.NewStdLog(h.Logger))
	jobID := h.Jobs.Start(fr)

	events := job.NewEventLog()
	go events.Watch(fr.Events())
	go events.LogTo(h.Logger)

	go func() {
		start := time.Now()
		pagesCrawled, err := fr.RunCycle(context.Background())
		if err != nil {
			h.Logger.Error("dispatched crawl cycle failed", zap.Error(err), zap.String("job_id", jobID))
		}
		h.Metrics.Cycles.Inc()
		h.Metrics.CycleDuration.Observe(time.Since(start).Seconds())
		h.Metrics.PagesCrawled.Add(float64(pagesCrawled))
		h.Metrics.Errors.Add(float64(fr.ErrorCount()))
	}()

	return jobID
}

func seedDomains(seedURLs []string) []string {
	domains := make([]string, 0, len(seedURLs))
	for _, s := range seedURLs {
		if d, err := frontier.Domain(s); err == nil {
			domains = append(domains, d)
		}
	}
	return domains
}

// JobStatus handles GET /job-status/{job_id}.
func (h *CrawlerHandler) JobStatus(c *gin.Context) {
	id := c.Param("job_id")
	status, ok := h.Jobs.Status(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Status: "error", Message: "unknown job_id"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// SuggestQueries builds the "single terms plus adjacent bigrams" suggestion
// list returned alongside a no_results response.
func SuggestQueries(query string) []string {
	terms := strings.Fields(query)
	suggestions := make([]string, 0, 2*len(terms))
	suggestions = append(suggestions, terms...)
	for i := 0; i+1 < len(terms); i++ {
		suggestions = append(suggestions, terms[i]+" "+terms[i+1])
	}
	return suggestions
}
