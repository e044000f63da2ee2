// Package searchstore wraps the Elasticsearch-backed "pages" index: schema
// creation, document writes from the indexer, and the multi-match query used
// by query fusion.
package searchstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const IndexName = "pages"

// Client wraps the official Elasticsearch client.
type Client struct {
	es *es.Client
}

// NewClient builds a Client against the given Elasticsearch URL.
func NewClient(url string) (*Client, error) {
	cfg := es.Config{Addresses: []string{url}}
	underlying, err := es.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: underlying}, nil
}

// mapping defines the single-shard, single-replica "pages" index: standard
// analyzer, keyword ids, text fields for relevance.
const mapping = `{
	"settings": {"number_of_shards": 1, "number_of_replicas": 1, "analysis": {"analyzer": {"default": {"type": "standard"}}}},
	"mappings": {
		"properties": {
			"webpage_id": {"type": "keyword"},
			"title": {"type": "text"},
			"body": {"type": "text"},
			"indexed_at": {"type": "date"},
			"metadata": {"type": "object"},
			"content_summary": {"type": "text"},
			"keywords": {"type": "keyword"},
			"page_rank": {"type": "double"}
		}
	}
}`

// EnsureIndex creates the "pages" index if it does not already exist.
func (c *Client) EnsureIndex(ctx context.Context) error {
	existsRes, err := c.es.Indices.Exists([]string{IndexName}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer existsRes.Body.Close()
	if existsRes.StatusCode == 200 {
		return nil
	}

	createRes, err := c.es.Indices.Create(
		IndexName,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		body, _ := io.ReadAll(createRes.Body)
		return fmt.Errorf("create index failed: %s", string(body))
	}
	return nil
}

// DocumentMetadata is the metadata object stored alongside each document.
type DocumentMetadata struct {
	Domain          string `json:"domain"`
	MetaDescription string `json:"meta_description,omitempty"`
	MetaKeywords    string `json:"meta_keywords,omitempty"`
}

// Document is the processed document written by the indexer.
type Document struct {
	WebpageID      string           `json:"webpage_id"`
	Title          string           `json:"title"`
	Body           string           `json:"body"`
	IndexedAt      string           `json:"indexed_at"`
	ContentSummary string           `json:"content_summary"`
	Keywords       []string         `json:"keywords"`
	PageRank       float64          `json:"page_rank"`
	Metadata       DocumentMetadata `json:"metadata"`
}

// IndexDocument writes a Document indexed by its webpage_id.
func (c *Client) IndexDocument(ctx context.Context, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.WebpageID, err)
	}
	req := esapi.IndexRequest{
		Index:      IndexName,
		DocumentID: doc.WebpageID,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index document %s: %w", doc.WebpageID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index document %s failed: %s", doc.WebpageID, string(body))
	}
	return nil
}

// Hit is one search result: a matched webpage id and its BM25 score.
type Hit struct {
	WebpageID string
	Score     float64
}

const maxCandidates = 1000
const pageSize = 100

// Search runs a multi-match plus title-phrase-boost query and returns up to
// maxCandidates (webpage_id, bm25_score) hits.
func (c *Client) Search(ctx context.Context, query string) ([]Hit, error) {
	body := map[string]interface{}{
		"size": pageSize,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":  query,
							"fields": []string{"title^3", "content_summary^2", "body^1"},
						},
					},
					{
						"match_phrase": map[string]interface{}{
							"title": map[string]interface{}{"query": query, "boost": 4},
						},
					},
				},
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	var hits []Hit
	for from := 0; from < maxCandidates; from += pageSize {
		page, err := c.searchPage(ctx, payload, from)
		if err != nil {
			return nil, err
		}
		hits = append(hits, page...)
		if len(page) < pageSize {
			break
		}
	}
	if len(hits) > maxCandidates {
		hits = hits[:maxCandidates]
	}
	return hits, nil
}

func (c *Client) searchPage(ctx context.Context, payload []byte, from int) ([]Hit, error) {
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(IndexName),
		c.es.Search.WithBody(bytes.NewReader(payload)),
		c.es.Search.WithFrom(from),
		c.es.Search.WithSize(pageSize),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", string(body))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID    string  `json:"_id"`
				Score float64 `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, Hit{WebpageID: h.ID, Score: h.Score})
	}
	return out, nil
}
