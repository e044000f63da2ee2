// Package metrics registers each service's counters, gauges, and histograms
// as github.com/prometheus/client_golang primitives, one prometheus.Registry
// per service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Crawler holds the crawler service's registered metrics.
type Crawler struct {
	Registry      *prometheus.Registry
	QueueSize     prometheus.Gauge
	PagesCrawled  prometheus.Counter
	Errors        prometheus.Counter
	Cycles        prometheus.Counter
	CycleDuration prometheus.Histogram
}

// NewCrawler builds a Crawler metric set against a fresh registry.
func NewCrawler() *Crawler {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Crawler{
		Registry:     reg,
		QueueSize:    f.NewGauge(prometheus.GaugeOpts{Name: "crawler_queue_size", Help: "Number of URLs currently queued in the frontier."}),
		PagesCrawled: f.NewCounter(prometheus.CounterOpts{Name: "crawler_pages_crawled", Help: "Total pages successfully crawled."}),
		Errors:       f.NewCounter(prometheus.CounterOpts{Name: "crawler_errors_total", Help: "Total per-URL fetch failures swallowed by the crawl loop."}),
		Cycles:       f.NewCounter(prometheus.CounterOpts{Name: "crawler_cycles_total", Help: "Total completed crawl cycles."}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "crawler_duration_seconds",
			Help: "Wall-clock duration of a crawl cycle.",
		}),
	}
}

// Indexer holds the indexer service's registered metrics.
type Indexer struct {
	Registry              *prometheus.Registry
	QueueSize             prometheus.Gauge
	DocsCount             prometheus.Gauge
	DocsProcessed         prometheus.Counter
	Errors                prometheus.Counter
	Cycles                prometheus.Counter
	CycleDuration         prometheus.Histogram
	DocProcessingDuration prometheus.Histogram
}

// NewIndexer builds an Indexer metric set against a fresh registry.
func NewIndexer() *Indexer {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Indexer{
		Registry:      reg,
		QueueSize:     f.NewGauge(prometheus.GaugeOpts{Name: "indexer_queue_size", Help: "Number of pages pending indexing at the start of the current batch."}),
		DocsCount:     f.NewGauge(prometheus.GaugeOpts{Name: "indexer_docs_count", Help: "Number of documents in the current batch."}),
		DocsProcessed: f.NewCounter(prometheus.CounterOpts{Name: "indexer_docs_processed_total", Help: "Total documents successfully indexed."}),
		Errors:        f.NewCounter(prometheus.CounterOpts{Name: "indexer_errors_total", Help: "Total per-document indexing errors swallowed by the pipeline."}),
		Cycles:        f.NewCounter(prometheus.CounterOpts{Name: "indexer_cycles_total", Help: "Total completed indexing batch cycles."}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "indexer_duration_seconds",
			Help: "Wall-clock duration of an indexing batch cycle.",
		}),
		DocProcessingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "indexer_doc_processing_duration_seconds",
			Help: "Wall-clock duration of indexing a single document.",
		}),
	}
}

// Ranker holds the ranker service's registered metrics.
type Ranker struct {
	Registry              *prometheus.Registry
	PagesToRank           prometheus.Gauge
	GraphSize             prometheus.Gauge
	AveragePageRank       prometheus.Gauge
	CalculationsComplete  prometheus.Counter
	Errors                prometheus.Counter
	Cycles                prometheus.Counter
	CalculationDuration   prometheus.Histogram
	IterationDuration     prometheus.Histogram
	ConvergenceIterations prometheus.Gauge
}

// NewRanker builds a Ranker metric set against a fresh registry.
func NewRanker() *Ranker {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Ranker{
		Registry:             reg,
		PagesToRank:          f.NewGauge(prometheus.GaugeOpts{Name: "ranker_pages_to_rank", Help: "Number of webpages observed at the start of the current rank cycle."}),
		GraphSize:            f.NewGauge(prometheus.GaugeOpts{Name: "ranker_graph_size", Help: "Number of nodes in the link graph built for the current rank cycle."}),
		AveragePageRank:      f.NewGauge(prometheus.GaugeOpts{Name: "ranker_average_page_rank", Help: "Mean page_rank across all ranked nodes after the current cycle."}),
		CalculationsComplete: f.NewCounter(prometheus.CounterOpts{Name: "ranker_calculation_completed_total", Help: "Total completed PageRank calculations."}),
		Errors:               f.NewCounter(prometheus.CounterOpts{Name: "ranker_errors_total", Help: "Total whole-cycle ranker errors."}),
		Cycles:               f.NewCounter(prometheus.CounterOpts{Name: "ranker_cycles_total", Help: "Total completed ranker cycles."}),
		CalculationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "ranker_calculation_duration_seconds",
			Help: "Wall-clock duration of a full PageRank calculation.",
		}),
		IterationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "ranker_iteration_duration_seconds",
			Help: "Wall-clock duration of a single PageRank iteration.",
		}),
		ConvergenceIterations: f.NewGauge(prometheus.GaugeOpts{Name: "ranker_convergence_iterations", Help: "Number of iterations run in the current cycle (fixed N)."}),
	}
}
