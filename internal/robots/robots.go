// Package robots maintains a host-keyed cache of robots.txt decisions: one
// fetch per host for the lifetime of the Cache, permissive on any fetch or
// parse failure. Each frontier.Frontier builds its own Cache, so separate
// crawls in one process do not share entries.
package robots

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/crawlstack/distsearch/internal/fetcher"
)

const robotsTxtPath = "/robots.txt"

type entry struct {
	group     *robotstxt.Group
	fetchedAt time.Time
}

// Cache is a shared, mutex-guarded robots.txt decision table keyed by
// scheme://host.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	fetcher *fetcher.Fetcher
}

// New creates an empty Cache. It reuses the shared Fetcher so robots.txt
// fetches obey the same timeouts and retry policy as page fetches.
func New(f *fetcher.Fetcher) *Cache {
	return &Cache{entries: make(map[string]*entry), fetcher: f}
}

// Allowed reports whether userAgent may fetch target, fetching and caching
// target's host robots.txt on first sight. Any fetch/parse failure is
// treated as permissive.
func (c *Cache) Allowed(ctx context.Context, target *url.URL, userAgent string) bool {
	host := hostKey(target)

	c.mu.Lock()
	e, ok := c.entries[host]
	c.mu.Unlock()

	if !ok {
		e = c.fetchAndStore(ctx, target, userAgent, host)
	}
	if e == nil || e.group == nil {
		return true
	}
	return e.group.Test(target.Path)
}

// CrawlDelay returns the robots.txt crawl-delay directive for the host of
// target, or 0 if none is known.
func (c *Cache) CrawlDelay(target *url.URL) time.Duration {
	host := hostKey(target)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[host]
	if !ok || e.group == nil {
		return 0
	}
	return e.group.CrawlDelay
}

func (c *Cache) fetchAndStore(ctx context.Context, target *url.URL, userAgent, host string) *entry {
	robotsURL := fmt.Sprintf("%s%s", host, robotsTxtPath)
	results := c.fetcher.FetchBatch(ctx, []fetcher.Item{{URL: robotsURL, Depth: 0}})
	res := results[0]

	var e *entry
	if res.Failure == nil && res.Status < 400 {
		if doc, err := robotstxt.FromBytes(res.Body); err == nil {
			e = &entry{group: doc.FindGroup(userAgent), fetchedAt: time.Now()}
		}
	}
	if e == nil {
		// Permissive: record an empty entry so later lookups for this host
		// don't refetch for the Cache's lifetime (concurrent misses may
		// still fetch twice, which is harmless).
		e = &entry{fetchedAt: time.Now()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[host]; ok {
		return existing
	}
	c.entries[host] = e
	return e
}

func hostKey(u *url.URL) string {
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}
