// Package config loads per-service configuration through viper: environment
// variables bound with AutomaticEnv, an optional YAML file, and defaults
// registered up front.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StoreConfig is embedded by every service config: where the page store and
// search store live, and how big a connection pool to open.
type StoreConfig struct {
	DatabaseURL      string
	ElasticsearchURL string
	MaxOpenConns     int
}

// ServerConfig is embedded by every service config: the metrics/API port and
// log verbosity.
type ServerConfig struct {
	MetricsPort int
	LogLevel    string
}

// CrawlerConfig configures the frontier-and-fetcher service and its HTTP API.
type CrawlerConfig struct {
	Store  StoreConfig
	Server ServerConfig

	SeedURLs           []string
	UserAgent          string
	ConcurrentRequests int
	MaxDepth           int
	MaxPages           int
	MinQualityScore    int
	BlockedDomains     []string
	AllowedDomains     []string
	PriorityDomains    []string
	LinkBatchSize      int
	LinkBatchRetries   int
	ReEntryInterval    time.Duration
	FetchDelay         time.Duration
	MaxContentSize     int64
	APIPort            int
}

// RankerConfig configures the link-graph ranker service.
type RankerConfig struct {
	Store  StoreConfig
	Server ServerConfig

	CycleInterval time.Duration
}

// IndexerConfig configures the indexing pipeline service.
type IndexerConfig struct {
	Store  StoreConfig
	Server ServerConfig

	BatchSize     int
	PollInterval  time.Duration
	MaxConcurrent int
	PaceDelay     time.Duration
	WriteRetries  int
	PullRetries   int
}

// QueryConfig configures the query-fusion service and its `/search` API.
type QueryConfig struct {
	Store  StoreConfig
	Server ServerConfig

	APIPort int
}

// errMissingDatabaseURL signals a fatal startup error: without a database URL
// the service exits non-zero rather than run half-configured.
type errMissingDatabaseURL struct{}

func (errMissingDatabaseURL) Error() string {
	return "DATABASE_URL is required"
}

// initViper wires env binding, the optional YAML file, and shared defaults. A
// config file that cannot be read or parsed is ignored; values then come from
// flags, environment variables, and defaults only.
func initViper(cfgFile string) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetConfigType("yaml")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
	}
	_ = viper.ReadInConfig()

	viper.SetDefault("elasticsearch_url", "http://localhost:9200")
	viper.SetDefault("metrics_port", 9090)
	viper.SetDefault("log_level", "info")
}

func storeConfig(maxOpenConns int) (StoreConfig, error) {
	dbURL := viper.GetString("database_url")
	if dbURL == "" {
		return StoreConfig{}, errMissingDatabaseURL{}
	}
	return StoreConfig{
		DatabaseURL:      dbURL,
		ElasticsearchURL: viper.GetString("elasticsearch_url"),
		MaxOpenConns:     maxOpenConns,
	}, nil
}

func serverConfig() ServerConfig {
	return ServerConfig{
		MetricsPort: viper.GetInt("metrics_port"),
		LogLevel:    viper.GetString("log_level"),
	}
}

// LoadCrawlerConfig reads CrawlerConfig from viper. Pool size defaults to a
// handful of connections, enough for the crawler's own storage writes.
func LoadCrawlerConfig(cfgFile string) (*CrawlerConfig, error) {
	initViper(cfgFile)
	viper.SetDefault("user_agent", "distsearch-bot/1.0")
	viper.SetDefault("concurrent_requests", 8)
	viper.SetDefault("max_depth", 16)
	viper.SetDefault("max_pages", 1000)
	viper.SetDefault("min_quality_score", 40)
	viper.SetDefault("link_batch_size", 50)
	viper.SetDefault("link_batch_retries", 3)
	viper.SetDefault("re_entry_interval", "5m")
	viper.SetDefault("fetch_delay", "0s")
	viper.SetDefault("max_content_size", 10<<20)
	viper.SetDefault("api_port", 8080)
	viper.SetDefault("db_max_open_conns", 5)

	store, err := storeConfig(viper.GetInt("db_max_open_conns"))
	if err != nil {
		return nil, fmt.Errorf("load crawler config: %w", err)
	}

	return &CrawlerConfig{
		Store:              store,
		Server:             serverConfig(),
		SeedURLs:           viper.GetStringSlice("seed_urls"),
		UserAgent:          viper.GetString("user_agent"),
		ConcurrentRequests: viper.GetInt("concurrent_requests"),
		MaxDepth:           viper.GetInt("max_depth"),
		MaxPages:           viper.GetInt("max_pages"),
		MinQualityScore:    viper.GetInt("min_quality_score"),
		BlockedDomains:     viper.GetStringSlice("blocked_domains"),
		AllowedDomains:     viper.GetStringSlice("allowed_domains"),
		PriorityDomains:    viper.GetStringSlice("priority_domains"),
		LinkBatchSize:      viper.GetInt("link_batch_size"),
		LinkBatchRetries:   viper.GetInt("link_batch_retries"),
		ReEntryInterval:    viper.GetDuration("re_entry_interval"),
		FetchDelay:         viper.GetDuration("fetch_delay"),
		MaxContentSize:     viper.GetInt64("max_content_size"),
		APIPort:            viper.GetInt("api_port"),
	}, nil
}

// LoadRankerConfig reads RankerConfig from viper. Pool size defaults much
// higher than the other services'.
func LoadRankerConfig(cfgFile string) (*RankerConfig, error) {
	initViper(cfgFile)
	viper.SetDefault("cycle_interval", "5m")
	viper.SetDefault("db_max_open_conns", 50)

	store, err := storeConfig(viper.GetInt("db_max_open_conns"))
	if err != nil {
		return nil, fmt.Errorf("load ranker config: %w", err)
	}
	return &RankerConfig{
		Store:         store,
		Server:        serverConfig(),
		CycleInterval: viper.GetDuration("cycle_interval"),
	}, nil
}

// LoadIndexerConfig reads IndexerConfig from viper.
func LoadIndexerConfig(cfgFile string) (*IndexerConfig, error) {
	initViper(cfgFile)
	viper.SetDefault("batch_size", 10)
	viper.SetDefault("poll_interval", "30s")
	viper.SetDefault("max_concurrent", 2)
	viper.SetDefault("pace_delay", "100ms")
	viper.SetDefault("write_retries", 3)
	viper.SetDefault("pull_retries", 3)
	viper.SetDefault("db_max_open_conns", 15)

	store, err := storeConfig(viper.GetInt("db_max_open_conns"))
	if err != nil {
		return nil, fmt.Errorf("load indexer config: %w", err)
	}
	return &IndexerConfig{
		Store:         store,
		Server:        serverConfig(),
		BatchSize:     viper.GetInt("batch_size"),
		PollInterval:  viper.GetDuration("poll_interval"),
		MaxConcurrent: viper.GetInt("max_concurrent"),
		PaceDelay:     viper.GetDuration("pace_delay"),
		WriteRetries:  viper.GetInt("write_retries"),
		PullRetries:   viper.GetInt("pull_retries"),
	}, nil
}

// LoadQueryConfig reads QueryConfig from viper.
func LoadQueryConfig(cfgFile string) (*QueryConfig, error) {
	initViper(cfgFile)
	viper.SetDefault("api_port", 8081)
	viper.SetDefault("db_max_open_conns", 5)

	store, err := storeConfig(viper.GetInt("db_max_open_conns"))
	if err != nil {
		return nil, fmt.Errorf("load query config: %w", err)
	}
	return &QueryConfig{
		Store:   store,
		Server:  serverConfig(),
		APIPort: viper.GetInt("api_port"),
	}, nil
}
