package frontier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlstack/distsearch/internal/fetcher"
	"github.com/crawlstack/distsearch/internal/robots"
	"github.com/crawlstack/distsearch/internal/store"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestProcessPageEnqueuesLinksEvenWhenGated(t *testing.T) {
	fr := &Frontier{
		cfg: Config{
			MinQualityScore: 40,
			MaxDepth:        10,
		},
		queue:   NewQueue(),
		visited: NewVisitedSet(),
		logger:  discardLogger(),
		events:  make(chan Event, 8),
	}

	body := []byte(`<html><body><a href="/b">b</a><a href="/c">c</a></body></html>`)
	result := fetcher.Result{URL: "https://example.com/a", Depth: 0, Body: body, Status: 200}

	fr.processPage(context.Background(), result)

	assert.Equal(t, 2, fr.queue.Len(), "a below-threshold page's links should still be enqueued")
}

func TestInsertBatchWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	st := store.NewFromDB(sqlx.NewDb(mockDB, "postgres"))

	fr := &Frontier{
		cfg:    Config{LinkBatchSize: 10, LinkBatchRetries: 3},
		store:  st,
		logger: discardLogger(),
	}

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO links").WillReturnError(errors.New("transient"))
		mock.ExpectRollback()
	}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO links").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	fr.insertBatchWithRetry(context.Background(), []store.Link{
		{SourceWebpageID: "source-id", TargetURL: "https://example.com/x"},
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatchWithRetryAbandonsAfterMaxAttempts(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	st := store.NewFromDB(sqlx.NewDb(mockDB, "postgres"))

	fr := &Frontier{
		cfg:    Config{LinkBatchSize: 10, LinkBatchRetries: 3},
		store:  st,
		logger: discardLogger(),
	}

	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO links").WillReturnError(errors.New("permanent"))
		mock.ExpectRollback()
	}

	fr.insertBatchWithRetry(context.Background(), []store.Link{
		{SourceWebpageID: "source-id", TargetURL: "https://example.com/x"},
	})

	assert.NoError(t, mock.ExpectationsWereMet(), "should give up after exactly LinkBatchRetries attempts, not retry forever")
}

// chainServer serves /page/N with a single link to /page/N+1 and a 404 for
// robots.txt, so a crawl of it never runs out of queued work on its own and
// is always gated by MaxPages.
func chainServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var n int
		fmt.Sscanf(r.URL.Path, "/page/%d", &n)
		fmt.Fprintf(w, `<html><body><a href="/page/%d">next</a></body></html>`, n+1)
	}))
}

func TestRunCycleBoundsPagesPerCycleIndependentOfCumulativeVisited(t *testing.T) {
	server := chainServer()
	defer server.Close()

	f := fetcher.New(fetcher.Config{
		UserAgent:             "test-bot",
		MaxConcurrentRequests: 1,
		MaxContentSize:        1 << 20,
	})

	fr := &Frontier{
		cfg: Config{
			SeedURLs:           []string{server.URL + "/page/0"},
			ConcurrentRequests: 1,
			MaxDepth:           1000,
			MaxPages:           3,
			MinQualityScore:    40,
			LinkBatchSize:      50,
			LinkBatchRetries:   1,
			UserAgent:          "test-bot",
		},
		queue:   NewQueue(),
		visited: NewVisitedSet(),
		fetcher: f,
		robots:  robots.New(f),
		logger:  discardLogger(),
		events:  make(chan Event, 256),
	}

	ctx := context.Background()

	firstCycle, err := fr.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, firstCycle, "a cycle must stop at MaxPages")

	secondCycle, err := fr.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, secondCycle, "a later cycle must crawl up to MaxPages again, "+
		"not be starved by the cumulative visited count from earlier cycles")
}
