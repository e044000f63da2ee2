package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crawlstack/distsearch/internal/fetcher"
)

func TestAllowedWithDisallowRule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\nCrawl-delay: 2"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(fetcher.New(fetcher.DefaultConfig()))
	base, err := url.Parse(server.URL)
	require.NoError(t, err)

	allowed, err := url.Parse(server.URL + "/public")
	require.NoError(t, err)
	disallowed, err := url.Parse(server.URL + "/private/x")
	require.NoError(t, err)

	assert.True(t, c.Allowed(context.Background(), allowed, "test-agent"))
	assert.False(t, c.Allowed(context.Background(), disallowed, "test-agent"))
	assert.Equal(t, 2*time.Second, c.CrawlDelay(base))
}

func TestAllowedPermissiveOnFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(fetcher.New(fetcher.DefaultConfig()))
	target, err := url.Parse(server.URL + "/anything")
	require.NoError(t, err)
	assert.True(t, c.Allowed(context.Background(), target, "test-agent"))
}
