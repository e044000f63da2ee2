package htmlparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyHTML(t *testing.T) {
	page, err := Parse("https://example.com/", "example.com", 200, []byte(""), true)
	require.NoError(t, err)
	assert.Nil(t, page.Content)
	assert.Empty(t, page.Links)
	assert.NotEmpty(t, page.ContentHash)
}

func TestParseTier1Content(t *testing.T) {
	words := strings.Repeat("word ", 60)
	html := "<html><head><title>Hello</title></head><body><nav>skip me</nav><article>" + words + "</article></body></html>"
	page, err := Parse("https://example.com/a", "example.com", 200, []byte(html), true)
	require.NoError(t, err)
	require.NotNil(t, page.Title)
	assert.Equal(t, "Hello", *page.Title)
	require.NotNil(t, page.Content)
	assert.NotContains(t, *page.Content, "skip me")
}

func TestParseLinksDedupAndNofollow(t *testing.T) {
	html := `<html><body>
		<a href="/a" rel="nofollow">skip</a>
		<a href="/b">B link</a>
		<a href="/b">duplicate</a>
		<a href="rel/c" title="C title"></a>
	</body></html>`
	page, err := Parse("https://example.com/base/", "example.com", 200, []byte(html), true)
	require.NoError(t, err)
	require.Len(t, page.Links, 2)
	assert.Equal(t, "https://example.com/b", page.Links[0].URL)
	require.NotNil(t, page.Links[0].AnchorText)
	assert.Equal(t, "B link", *page.Links[0].AnchorText)
	assert.Equal(t, "https://example.com/base/rel/c", page.Links[1].URL)
	require.NotNil(t, page.Links[1].AnchorText)
	assert.Equal(t, "C title", *page.Links[1].AnchorText)
}

func TestParseMetadata(t *testing.T) {
	html := `<html lang="en"><head>
		<meta property="og:title" content="OG Title">
		<meta name="description" content="A description">
		<meta name="keywords" content="a,b,c">
		<meta name="twitter:card" content="summary">
	</head><body></body></html>`
	page, err := Parse("https://example.com/", "example.com", 200, []byte(html), true)
	require.NoError(t, err)
	require.NotNil(t, page.MetaTitle)
	assert.Equal(t, "OG Title", *page.MetaTitle)
	require.NotNil(t, page.MetaDescription)
	assert.Equal(t, "A description", *page.MetaDescription)
	require.NotNil(t, page.Metadata)
	assert.Equal(t, "en", page.Metadata.Language)
	assert.Equal(t, "summary", page.Metadata.TwitterCard["card"])
}

func TestContentHashStableAcrossParses(t *testing.T) {
	html := []byte("<html><body>same bytes</body></html>")
	p1, err := Parse("https://example.com/", "example.com", 200, html, true)
	require.NoError(t, err)
	p2, err := Parse("https://example.com/", "example.com", 200, html, true)
	require.NoError(t, err)
	assert.Equal(t, p1.ContentHash, p2.ContentHash)
}
