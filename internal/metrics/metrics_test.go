package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewCrawlerRegistersDistinctMetrics(t *testing.T) {
	m := NewCrawler()

	m.Cycles.Inc()
	m.PagesCrawled.Add(3)
	m.QueueSize.Set(7)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Cycles))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.PagesCrawled))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.QueueSize))
}

func TestNewIndexerAndNewRankerUseIndependentRegistries(t *testing.T) {
	indexer := NewIndexer()
	ranker := NewRanker()

	assert.NotSame(t, indexer.Registry, ranker.Registry)

	indexer.DocsProcessed.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(indexer.DocsProcessed))
	assert.Equal(t, float64(0), testutil.ToFloat64(ranker.Errors))
}
