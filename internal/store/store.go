// Package store is the page store: the Postgres-backed home of Webpage and
// Link rows, built on sqlx.DB over lib/pq with one method per query shape.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Webpage mirrors the webpages table.
type Webpage struct {
	ID                   string         `db:"id"`
	URL                  string         `db:"url"`
	Domain               string         `db:"domain"`
	Title                sql.NullString `db:"title"`
	ContentSummary       sql.NullString `db:"content_summary"`
	MetaTitle            sql.NullString `db:"meta_title"`
	MetaDescription      sql.NullString `db:"meta_description"`
	MetaKeywords         sql.NullString `db:"meta_keywords"`
	FetchTimestamp       time.Time      `db:"fetch_timestamp"`
	LastUpdatedTimestamp sql.NullTime   `db:"last_updated_timestamp"`
	Status               sql.NullInt32  `db:"status"`
	ContentHash          sql.NullString `db:"content_hash"`
	Metadata             []byte         `db:"metadata"`
	Processed            bool           `db:"processed"`
	Ranked               bool           `db:"ranked"`
	LastRankedAt         sql.NullTime   `db:"last_ranked_at"`
	PageRank             float64        `db:"page_rank"`
}

// Link mirrors the links table.
type Link struct {
	ID              string         `db:"id"`
	SourceWebpageID string         `db:"source_webpage_id"`
	TargetURL       string         `db:"target_url"`
	AnchorText      sql.NullString `db:"anchor_text"`
}

// LinkEdge is the minimal shape the ranker needs to build the graph.
type LinkEdge struct {
	SourceWebpageID string `db:"source_webpage_id"`
	TargetURL       string `db:"target_url"`
}

// Store wraps a Postgres connection pool.
type Store struct {
	db *sqlx.DB
}

// Open connects to databaseURL and configures the pool size; callers pass
// the pool size that fits their service (a small pool for the crawler's
// storage path, a larger one for the ranker's bulk writeback or the
// indexer's batch pulls).
func Open(databaseURL string, maxOpenConns int) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect page store: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// NewFromDB wraps an already-opened sqlx.DB, for callers in other packages
// that need a Store backed by a mock driver in tests.
func NewFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// UpsertWebpage inserts a new Webpage or merges into an existing one by URL,
// preserving existing non-null fields over incoming nulls.
func (s *Store) UpsertWebpage(ctx context.Context, w *Webpage) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.FetchTimestamp.IsZero() {
		w.FetchTimestamp = time.Now().UTC()
	}
	const q = `
		INSERT INTO webpages (
			id, url, domain, title, content_summary, meta_title, meta_description,
			meta_keywords, fetch_timestamp, last_updated_timestamp, status,
			content_hash, metadata
		) VALUES (
			:id, :url, :domain, :title, :content_summary, :meta_title, :meta_description,
			:meta_keywords, :fetch_timestamp, now(), :status, :content_hash, :metadata
		)
		ON CONFLICT (url) DO UPDATE SET
			title = COALESCE(webpages.title, excluded.title),
			content_summary = COALESCE(webpages.content_summary, excluded.content_summary),
			meta_title = COALESCE(webpages.meta_title, excluded.meta_title),
			meta_description = COALESCE(webpages.meta_description, excluded.meta_description),
			meta_keywords = COALESCE(webpages.meta_keywords, excluded.meta_keywords),
			status = excluded.status,
			content_hash = COALESCE(webpages.content_hash, excluded.content_hash),
			metadata = COALESCE(webpages.metadata, excluded.metadata),
			last_updated_timestamp = now()
		RETURNING id
	`
	rows, err := s.db.NamedQueryContext(ctx, q, w)
	if err != nil {
		return fmt.Errorf("upsert webpage %s: %w", w.URL, err)
	}
	defer rows.Close()
	if rows.Next() {
		_ = rows.Scan(&w.ID)
	}
	return nil
}

// InsertLinks writes a batch of links inside one transaction. Callers are
// responsible for batching and retrying on failure; this stays a thin
// primitive so the caller's retry policy remains visible at the call site.
func (s *Store) InsertLinks(ctx context.Context, links []Link) error {
	if len(links) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin link batch: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO links (id, source_webpage_id, target_url, anchor_text) VALUES (:id, :source_webpage_id, :target_url, :anchor_text)`
	for i := range links {
		if links[i].ID == "" {
			links[i].ID = uuid.NewString()
		}
		if _, err := tx.NamedExecContext(ctx, q, links[i]); err != nil {
			return fmt.Errorf("insert link batch: %w", err)
		}
	}
	return tx.Commit()
}

// AllLinkEdges returns every (source, target_url) pair for the ranker's
// graph construction.
func (s *Store) AllLinkEdges(ctx context.Context) ([]LinkEdge, error) {
	var edges []LinkEdge
	err := s.db.SelectContext(ctx, &edges, `SELECT DISTINCT source_webpage_id, target_url FROM links`)
	if err != nil {
		return nil, fmt.Errorf("select link edges: %w", err)
	}
	return edges, nil
}

// UpdateRanks writes the ranker's output in one transaction.
func (s *Store) UpdateRanks(ctx context.Context, ranks map[string]float64) error {
	if len(ranks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rank writeback: %w", err)
	}
	defer tx.Rollback()

	const q = `UPDATE webpages SET page_rank = $1, ranked = TRUE, last_ranked_at = now() WHERE id = $2`
	for id, rank := range ranks {
		if _, err := tx.ExecContext(ctx, q, rank, id); err != nil {
			return fmt.Errorf("update rank for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// PagesToIndex returns up to limit rows with processed=false AND ranked=true,
// ordered by page_rank DESC.
func (s *Store) PagesToIndex(ctx context.Context, limit int) ([]Webpage, error) {
	var pages []Webpage
	const q = `SELECT * FROM webpages WHERE processed = FALSE AND ranked = TRUE ORDER BY page_rank DESC LIMIT $1`
	if err := s.db.SelectContext(ctx, &pages, q, limit); err != nil {
		return nil, fmt.Errorf("select pages to index: %w", err)
	}
	return pages, nil
}

// MarkProcessed flips the indexer-consumed flag after a successful index
// write.
func (s *Store) MarkProcessed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE webpages SET processed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", id, err)
	}
	return nil
}

// URLsAndRanksByID is used by the query fusion service to pull (url,
// page_rank) for a batch of search-hit ids in one round trip.
func (s *Store) URLsAndRanksByID(ctx context.Context, ids []string) (map[string]Webpage, error) {
	if len(ids) == 0 {
		return map[string]Webpage{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM webpages WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build IN query: %w", err)
	}
	query = s.db.Rebind(query)
	var pages []Webpage
	if err := s.db.SelectContext(ctx, &pages, query, args...); err != nil {
		return nil, fmt.Errorf("select webpages by id: %w", err)
	}
	out := make(map[string]Webpage, len(pages))
	for _, p := range pages {
		out[p.ID] = p
	}
	return out, nil
}
