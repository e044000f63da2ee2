package indexing

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/crawlstack/distsearch/internal/metrics"
	"github.com/crawlstack/distsearch/internal/searchstore"
	"github.com/crawlstack/distsearch/internal/store"
)

func TestBuildDocumentMergesPrimaryAndMetaTokens(t *testing.T) {
	page := store.Webpage{
		ID:             "page-1",
		Domain:         "example.com",
		Title:          sql.NullString{String: "Crawling Spiders", Valid: true},
		ContentSummary: sql.NullString{String: "Indexing the web", Valid: true},
		MetaKeywords:   sql.NullString{String: "crawling search", Valid: true},
		PageRank:       0.42,
	}

	doc := BuildDocument(page)

	assert.Equal(t, "page-1", doc.WebpageID)
	assert.Equal(t, "Crawling Spiders", doc.Title)
	assert.Equal(t, 0.42, doc.PageRank)
	assert.Contains(t, doc.Keywords, "crawl")
	assert.Contains(t, doc.Keywords, "index")
	assert.Contains(t, doc.Keywords, "search")
	assert.Equal(t, "example.com", doc.Metadata.Domain)
	assert.Equal(t, "crawling search", doc.Metadata.MetaKeywords)
}

func TestBuildDocumentPrimaryTokensComeFirst(t *testing.T) {
	page := store.Webpage{
		ID:              "page-3",
		Title:           sql.NullString{String: "alpha", Valid: true},
		MetaDescription: sql.NullString{String: "zulu alpha", Valid: true},
	}

	doc := BuildDocument(page)

	require.Len(t, doc.Keywords, 2)
	assert.Equal(t, "alpha", doc.Keywords[0])
	assert.Equal(t, "zulu", doc.Keywords[1])
}

func TestBuildDocumentHandlesAllNullFields(t *testing.T) {
	page := store.Webpage{ID: "page-2"}
	doc := BuildDocument(page)
	assert.Equal(t, "page-2", doc.WebpageID)
	assert.Equal(t, "", doc.Title)
	assert.Empty(t, doc.Keywords)
	assert.Equal(t, "", doc.Metadata.Domain)
}

func webpageColumns() []string {
	return []string{
		"id", "url", "domain", "title", "content_summary", "meta_title",
		"meta_description", "meta_keywords", "fetch_timestamp",
		"last_updated_timestamp", "status", "content_hash", "metadata",
		"processed", "ranked", "last_ranked_at", "page_rank",
	}
}

func addWebpageRow(rows *sqlmock.Rows, id string, rank float64) {
	rows.AddRow(
		id, "https://example.com/"+id, "example.com", "t "+id, "summary", nil,
		nil, nil, time.Now(), nil, 200, "hash", nil, false, true, time.Now(), rank,
	)
}

// RunOnce must hand documents to the search store in non-increasing
// page_rank order within a batch.
func TestRunOnceIndexesInRankOrder(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	st := store.NewFromDB(sqlx.NewDb(mockDB, "postgres"))

	rows := sqlmock.NewRows(webpageColumns())
	addWebpageRow(rows, "high", 0.9)
	addWebpageRow(rows, "low", 0.1)
	mock.ExpectQuery("SELECT \\* FROM webpages WHERE processed = FALSE AND ranked = TRUE").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE webpages SET processed = TRUE").
		WithArgs("high").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE webpages SET processed = TRUE").
		WithArgs("low").WillReturnResult(sqlmock.NewResult(0, 1))

	var indexed []string
	es := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		parts := strings.Split(r.URL.Path, "/")
		indexed = append(indexed, parts[len(parts)-1])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer es.Close()
	search, err := searchstore.NewClient(es.URL)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.MaxConcurrent = 1
	cfg.PaceDelay = time.Millisecond
	p := NewPipeline(cfg, st, search, zaptest.NewLogger(t), metrics.NewIndexer())

	require.NoError(t, p.RunOnce(context.Background()))
	assert.Equal(t, []string{"high", "low"}, indexed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
