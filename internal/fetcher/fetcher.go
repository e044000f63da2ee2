// Package fetcher implements politeness-aware concurrent HTTP retrieval:
// a bounded pool of workers pulls (url, depth) pairs, fetches them through a
// single pooled HTTP client, and reports typed successes or failures.
package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/rehttp"
	"github.com/andybalholm/brotli"
)

// Config holds the options recognized by a Fetcher.
type Config struct {
	UserAgent             string
	RequestTimeout        time.Duration
	ConnectTimeout        time.Duration
	MaxRedirects          int
	MaxContentSize        int64
	DelayMs               time.Duration
	MaxConcurrentRequests int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:             "distsearch-bot/1.0",
		RequestTimeout:        30 * time.Second,
		ConnectTimeout:        10 * time.Second,
		MaxRedirects:          10,
		MaxContentSize:        10 << 20, // 10MiB
		DelayMs:               0,
		MaxConcurrentRequests: 8,
	}
}

// FailureKind enumerates the typed failures a fetch attempt can produce.
type FailureKind int

const (
	// NoFailure marks a successful fetch.
	NoFailure FailureKind = iota
	RequestError
	StatusError
	ContentTooLarge
	MaxRetriesReached
)

// Failure is a typed fetch error carrying enough context to decide retries,
// counters, and log lines without string matching.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Bytes      int64
	Err        error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case StatusError:
		return fmt.Sprintf("status error: %d", f.StatusCode)
	case ContentTooLarge:
		return fmt.Sprintf("content too large: %d bytes", f.Bytes)
	case MaxRetriesReached:
		return fmt.Sprintf("max retries reached: %v", f.Err)
	default:
		return fmt.Sprintf("request error: %v", f.Err)
	}
}

// Item is a single unit of work submitted to a fetch batch.
type Item struct {
	URL   string
	Depth int
}

// Result is the outcome of fetching a single Item.
type Result struct {
	URL      string
	Depth    int
	Body     []byte
	Status   int
	Failure  *Failure
	Duration time.Duration
}

// Fetcher owns one pooled HTTP client and a concurrency semaphore shared by
// every batch it processes.
type Fetcher struct {
	cfg       Config
	client    *http.Client
	semaphore chan struct{}

	requests atomic.Int64
	failures atomic.Int64
}

// Stats is a snapshot of a Fetcher's lifetime counters.
type Stats struct {
	Requests int64
	Failures int64
}

// Stats returns the counts of fetch tasks completed and of those that ended
// in a typed failure.
func (f *Fetcher) Stats() Stats {
	return Stats{Requests: f.requests.Load(), Failures: f.failures.Load()}
}

// New builds a Fetcher with a single reusable client and an idle connection
// pool sized to at least the configured concurrency, retrying only on
// transport-level errors.
func New(cfg Config) *Fetcher {
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 1
	}
	transport := rehttp.NewTransport(
		&http.Transport{
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: false},
			MaxIdleConns:        cfg.MaxConcurrentRequests * 2,
			MaxIdleConnsPerHost: cfg.MaxConcurrentRequests,
			DialContext: (&net.Dialer{
				Timeout: cfg.ConnectTimeout,
			}).DialContext,
		},
		retryTransportErrorsOnly,
		backoffDelay,
	)
	client := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}
	return &Fetcher{
		cfg:       cfg,
		client:    client,
		semaphore: make(chan struct{}, cfg.MaxConcurrentRequests),
	}
}

// retryTransportErrorsOnly retries up to 3 attempts, but only on a transport
// (network) error — HTTP status failures propagate untouched.
func retryTransportErrorsOnly(attempt rehttp.Attempt) bool {
	if attempt.Index >= 2 {
		return false
	}
	return attempt.Error != nil
}

// backoffDelay implements `2^n * 100ms + U(0,100ms)` for attempt n, 1-indexed
// (rehttp.Attempt.Index is 0-indexed).
func backoffDelay(attempt rehttp.Attempt) time.Duration {
	n := attempt.Index + 1
	base := time.Duration(1<<uint(n)) * 100 * time.Millisecond
	jitter := time.Duration(rand.Int63n(int64(100 * time.Millisecond)))
	return base + jitter
}

// FetchBatch runs every item in the batch as an independent, fully parallel
// task bounded by the fetcher's semaphore. Ordering of results is not
// guaranteed.
func (f *Fetcher) FetchBatch(ctx context.Context, items []Item) []Result {
	results := make(chan Result, len(items))
	for _, item := range items {
		go f.fetchOne(ctx, item, results)
	}
	out := make([]Result, 0, len(items))
	for range items {
		out = append(out, <-results)
	}
	return out
}

func (f *Fetcher) fetchOne(ctx context.Context, item Item, results chan<- Result) {
	select {
	case f.semaphore <- struct{}{}:
	case <-ctx.Done():
		f.requests.Add(1)
		f.failures.Add(1)
		results <- Result{URL: item.URL, Depth: item.Depth, Failure: &Failure{Kind: RequestError, Err: ctx.Err()}}
		return
	}
	defer func() { <-f.semaphore }()

	start := time.Now()
	body, status, failure := f.doFetch(ctx, item.URL)
	elapsed := time.Since(start)

	f.requests.Add(1)
	if failure != nil {
		f.failures.Add(1)
	}

	if f.cfg.DelayMs > 0 {
		time.Sleep(f.cfg.DelayMs)
	}

	results <- Result{
		URL:      item.URL,
		Depth:    item.Depth,
		Body:     body,
		Status:   status,
		Failure:  failure,
		Duration: elapsed,
	}
}

func (f *Fetcher) doFetch(ctx context.Context, target string) ([]byte, int, *Failure) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, &Failure{Kind: RequestError, Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, &Failure{Kind: MaxRetriesReached, Err: err}
	}
	defer resp.Body.Close()

	if resp.ContentLength > 0 && resp.ContentLength > f.cfg.MaxContentSize {
		return nil, resp.StatusCode, &Failure{Kind: ContentTooLarge, Bytes: resp.ContentLength}
	}

	// Setting Accept-Encoding ourselves disables the transport's automatic
	// gzip handling, so decode explicitly. The size gate below measures the
	// decoded bytes.
	decoded, err := decodeBody(resp)
	if err != nil {
		return nil, resp.StatusCode, &Failure{Kind: RequestError, Err: err}
	}

	limited := io.LimitReader(decoded, f.cfg.MaxContentSize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, resp.StatusCode, &Failure{Kind: RequestError, Err: err}
	}
	if int64(len(body)) > f.cfg.MaxContentSize {
		return nil, resp.StatusCode, &Failure{Kind: ContentTooLarge, Bytes: int64(len(body))}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode, &Failure{Kind: StatusError, StatusCode: resp.StatusCode}
	}

	return body, resp.StatusCode, nil
}

// decodeBody wraps resp.Body in the decoder the response's Content-Encoding
// calls for.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		return flate.NewReader(resp.Body), nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}
