package frontier

import (
	"net/url"
	"strings"
	"sync"
)

// queryCache is the advisory mapping from query string to the seed URL set
// it last produced. It is retained for locality but correctness never
// depends on a hit.
var queryCache = struct {
	mu    sync.Mutex
	cache map[string][]string
}{cache: make(map[string][]string)}

// searchSeedTemplates is the small curated set of search-engine URL
// templates used to seed a query-driven crawl.
var searchSeedTemplates = []string{
	"https://en.wikipedia.org/wiki/Special:Search?search=%s",
	"https://html.duckduckgo.com/html/?q=%s",
	"https://www.bing.com/search?q=%s",
}

// SeedURLsForQuery builds the seed URL set for a query-driven crawl, caching
// the result in the process-wide query cache.
func SeedURLsForQuery(query string) []string {
	queryCache.mu.Lock()
	defer queryCache.mu.Unlock()

	if cached, ok := queryCache.cache[query]; ok {
		return cached
	}
	escaped := url.QueryEscape(query)
	seeds := make([]string, len(searchSeedTemplates))
	for i, tmpl := range searchSeedTemplates {
		seeds[i] = strings.Replace(tmpl, "%s", escaped, 1)
	}
	queryCache.cache[query] = seeds
	return seeds
}
