// Package htmlparse turns raw fetched HTML into a ParsedPage: title, cleaned
// content, metadata, a content hash, and the deduplicated outbound link list.
package htmlparse

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is one outbound anchor discovered on a page.
type Link struct {
	URL        string
	AnchorText *string
}

// Metadata is the free-form structured object attached to a Webpage.
type Metadata struct {
	Language    string            `json:"language,omitempty"`
	OpenGraph   map[string]string `json:"open_graph,omitempty"`
	TwitterCard map[string]string `json:"twitter_card,omitempty"`
}

// Empty reports whether the metadata carries no information at all, in
// which case the caller should store nil rather than an empty object.
func (m *Metadata) Empty() bool {
	return m.Language == "" && len(m.OpenGraph) == 0 && len(m.TwitterCard) == 0
}

// ParsedPage is the output of parsing one fetched page.
type ParsedPage struct {
	URL             string
	Domain          string
	Title           *string
	Content         *string
	Status          int
	ContentHash     string
	Metadata        *Metadata
	MetaTitle       *string
	MetaDescription *string
	MetaKeywords    *string
	Links           []Link
}

// contentSelectors is the prioritized tier-1 selector list tried before
// falling back to scanning the whole body.
var contentSelectors = []string{
	"article",
	"main",
	"[role='main']",
	".main-content",
	"#content",
	".markdown-body",
	".documentation",
	".docs-content",
	".post-content",
	".blog-post",
	".entry-content",
}

// noiseSelector removes boilerplate chrome before measuring/extracting text.
const noiseSelector = "header, footer, nav, aside, script, style, .sidebar, .comments, .share-buttons, .advertisement, .cookie-banner"

var allowedPunct = regexp.MustCompile(`[^a-zA-Z0-9\s.,?!]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

const minTier1Tokens = 50
const minTier2BlockTokens = 20
const minRetainedTokens = 30

// Parse builds a ParsedPage from raw HTML, following nofollow policy and
// honoring the page's URL for relative-link resolution.
func Parse(pageURL, domain string, status int, rawHTML []byte, skipNofollow bool) (*ParsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(rawHTML)))
	if err != nil {
		return nil, err
	}

	page := &ParsedPage{
		URL:         pageURL,
		Domain:      domain,
		Status:      status,
		ContentHash: hashHTML(rawHTML),
	}

	page.Title = extractTitle(doc)
	page.Content = extractContent(doc)
	page.MetaTitle, page.MetaDescription, page.MetaKeywords = extractMetaFields(doc, page.Title)
	page.Metadata = extractMetadata(doc)
	page.Links = extractLinks(doc, pageURL, skipNofollow)

	return page, nil
}

func hashHTML(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func extractTitle(doc *goquery.Document) *string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return nil
	}
	return &title
}

func extractContent(doc *goquery.Document) *string {
	clean := doc.Clone()
	clean.Find(noiseSelector).Remove()

	for _, sel := range contentSelectors {
		candidate := clean.Find(sel).First()
		if candidate.Length() == 0 {
			continue
		}
		text := cleanText(candidate.Text())
		if tokenCount(text) > minTier1Tokens {
			return finalizeContent(text)
		}
	}

	// Tier 2: fall back to text-heavy blocks within <body>.
	body := clean.Find("body")
	var blocks []string
	body.Find("p, article, section, div.text, div.content, h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if tokenCount(text) > minTier2BlockTokens {
			blocks = append(blocks, text)
		}
	})
	joined := strings.Join(blocks, " ")
	return finalizeContent(joined)
}

func finalizeContent(text string) *string {
	if tokenCount(text) < minRetainedTokens {
		return nil
	}
	return &text
}

func cleanText(raw string) string {
	stripped := allowedPunct.ReplaceAllString(raw, " ")
	collapsed := whitespaceRun.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(collapsed)
}

func tokenCount(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Fields(s))
}

func extractMetaFields(doc *goquery.Document, title *string) (metaTitle, metaDescription, metaKeywords *string) {
	if v, ok := metaAttr(doc, "property", "og:title"); ok {
		metaTitle = &v
	} else if title != nil {
		metaTitle = title
	}

	if v, ok := metaAttr(doc, "name", "description"); ok {
		metaDescription = &v
	} else if v, ok := metaAttr(doc, "property", "og:description"); ok {
		metaDescription = &v
	}

	if v, ok := metaAttr(doc, "name", "keywords"); ok {
		metaKeywords = &v
	}
	return
}

func metaAttr(doc *goquery.Document, attrName, attrValue string) (string, bool) {
	var result string
	var found bool
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attrName); ok && v == attrValue {
			if content, ok := s.Attr("content"); ok {
				result = strings.TrimSpace(content)
				found = true
				return false
			}
		}
		return true
	})
	return result, found
}

func extractMetadata(doc *goquery.Document) *Metadata {
	m := &Metadata{OpenGraph: map[string]string{}, TwitterCard: map[string]string{}}
	if lang, ok := doc.Find("html").Attr("lang"); ok {
		m.Language = lang
	}
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, hasContent := s.Attr("content")
		if !hasContent {
			return
		}
		if prop, ok := s.Attr("property"); ok && strings.HasPrefix(prop, "og:") {
			m.OpenGraph[strings.TrimPrefix(prop, "og:")] = content
		}
		if name, ok := s.Attr("name"); ok && strings.HasPrefix(name, "twitter:") {
			m.TwitterCard[strings.TrimPrefix(name, "twitter:")] = content
		}
	})
	if m.Empty() {
		return nil
	}
	return m
}

func extractLinks(doc *goquery.Document, pageURL string, skipNofollow bool) []Link {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var links []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if skipNofollow {
			if rel, ok := s.Attr("rel"); ok && strings.Contains(rel, "nofollow") {
				return
			}
		}
		href, _ := s.Attr("href")
		resolved, ok := resolve(base, href)
		if !ok || seen[resolved] {
			return
		}
		seen[resolved] = true

		anchor := strings.TrimSpace(s.Text())
		if anchor == "" {
			anchor = strings.TrimSpace(s.AttrOr("title", ""))
		}
		var anchorPtr *string
		if anchor != "" {
			anchorPtr = &anchor
		}
		links = append(links, Link{URL: resolved, AnchorText: anchorPtr})
	})
	return links
}

func resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

const summaryMaxChars = 500

// Summarize derives content_summary from cleaned content: the first ~500
// characters, trimmed at the nearest preceding word boundary.
func Summarize(content string) string {
	if len(content) <= summaryMaxChars {
		return content
	}
	cut := strings.LastIndex(content[:summaryMaxChars], " ")
	if cut <= 0 {
		cut = summaryMaxChars
	}
	return strings.TrimSpace(content[:cut])
}
