// Package fusion combines full-text relevance with link authority into the
// final ranked result list returned to API callers: final_score =
// (0.6*bm25_score + 0.4*page_rank) / 2.
package fusion

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/crawlstack/distsearch/internal/searchstore"
	"github.com/crawlstack/distsearch/internal/store"
)

// ErrEmptyQuery is returned by Search when query is blank.
var ErrEmptyQuery = errors.New("query must not be empty")

const (
	bm25Weight     = 0.6
	pageRankWeight = 0.4
)

// Result is one fused, ranked search hit.
type Result struct {
	WebpageID      string  `json:"webpage_id"`
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	ContentSummary string  `json:"content_summary"`
	BM25Score      float64 `json:"bm25_score"`
	PageRank       float64 `json:"page_rank"`
	FinalScore     float64 `json:"final_score"`
}

// Fuse combines BM25 hits with each webpage's stored page_rank, producing a
// list sorted by descending final_score. Hits whose webpage id is no longer
// present in pages (deleted since indexing) are skipped.
func Fuse(hits []searchstore.Hit, pages map[string]store.Webpage) []Result {
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		page, ok := pages[h.WebpageID]
		if !ok {
			continue
		}
		final := (bm25Weight*h.Score + pageRankWeight*page.PageRank) / 2

		result := Result{
			WebpageID:  h.WebpageID,
			URL:        page.URL,
			BM25Score:  h.Score,
			PageRank:   page.PageRank,
			FinalScore: final,
		}
		if page.Title.Valid {
			result.Title = page.Title.String
		}
		if page.ContentSummary.Valid {
			result.ContentSummary = page.ContentSummary.String
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
	return results
}

// Search runs the full query-to-result pipeline end to end: query the
// search store, pull the corresponding webpages in one batch, fuse, and
// trim to limit. It is the single entry point used by both the
// query-fusion service's GET /search and the crawler's POST /crawl
// existing-results precheck.
func Search(ctx context.Context, search *searchstore.Client, st *store.Store, query string, limit int) ([]Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	hits, err := search.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search store query: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.WebpageID
	}
	pages, err := st.URLsAndRanksByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load webpages for search hits: %w", err)
	}

	results := Fuse(hits, pages)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
