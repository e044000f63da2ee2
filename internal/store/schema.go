package store

import "context"

// Schema is the DDL for the page store. Services run it on startup; it is
// idempotent via IF NOT EXISTS.
const Schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS webpages (
	id UUID PRIMARY KEY,
	url TEXT UNIQUE NOT NULL,
	domain TEXT NOT NULL,
	title TEXT,
	content_summary TEXT,
	meta_title TEXT,
	meta_description TEXT,
	meta_keywords TEXT,
	fetch_timestamp TIMESTAMPTZ NOT NULL,
	last_updated_timestamp TIMESTAMPTZ,
	status INT,
	content_hash TEXT,
	metadata JSONB,
	processed BOOL DEFAULT FALSE,
	ranked BOOL DEFAULT FALSE,
	last_ranked_at TIMESTAMPTZ,
	page_rank DOUBLE PRECISION DEFAULT 0
);

CREATE INDEX IF NOT EXISTS webpages_url_idx ON webpages (url);
CREATE INDEX IF NOT EXISTS webpages_fulltext_idx ON webpages
	USING GIN (to_tsvector('english', coalesce(title, '') || ' ' || coalesce(content_summary, '') || ' ' || coalesce(meta_description, '')));
CREATE INDEX IF NOT EXISTS webpages_metadata_idx ON webpages USING GIN (metadata);
CREATE INDEX IF NOT EXISTS webpages_rank_queue_idx ON webpages (processed, ranked, page_rank DESC);

CREATE TABLE IF NOT EXISTS links (
	id UUID PRIMARY KEY,
	source_webpage_id UUID REFERENCES webpages(id) ON DELETE CASCADE,
	target_url TEXT NOT NULL,
	anchor_text TEXT
);

CREATE INDEX IF NOT EXISTS links_source_idx ON links (source_webpage_id);
CREATE INDEX IF NOT EXISTS links_source_target_idx ON links (source_webpage_id, target_url);
`

// Migrate applies Schema. It is safe to call on every service startup.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}
