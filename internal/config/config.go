package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress         string
	DatabaseURI        string
	RedisAddress       string
	RedisPassword      string
	RedisDB            int
	CatalogCacheTTL    time.Duration
	SharedShippingFee  int64
	MaxAllocationBatch int
	RefreshInterval    time.Duration
	RefreshBatchSize   int
	WorkerPoolSize     int
	ShutdownTimeout    time.Duration
}

const (
	defaultRunAddress         = ":8080"
	defaultCatalogCacheTTL    = 5 * time.Minute
	defaultSharedShippingFee  = 4000
	defaultMaxAllocationBatch = 10000
	defaultRefreshInterval    = time.Minute
	defaultRefreshBatchSize   = 16
	defaultWorkerPoolSize     = 4
	defaultShutdownTimeout    = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:         getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:        getString(lookup, "DATABASE_URI", ""),
		RedisAddress:       getString(lookup, "REDIS_ADDRESS", ""),
		RedisPassword:      getString(lookup, "REDIS_PASSWORD", ""),
		RedisDB:            getInt(lookup, "REDIS_DB", 0),
		CatalogCacheTTL:    getDuration(lookup, "CATALOG_CACHE_TTL", defaultCatalogCacheTTL),
		SharedShippingFee:  int64(getInt(lookup, "SHARED_SHIPPING_FEE", defaultSharedShippingFee)),
		MaxAllocationBatch: getInt(lookup, "MAX_ALLOCATION_BATCH", defaultMaxAllocationBatch),
		RefreshInterval:    getDuration(lookup, "SETTLEMENT_REFRESH_INTERVAL", defaultRefreshInterval),
		RefreshBatchSize:   getInt(lookup, "SETTLEMENT_REFRESH_BATCH", defaultRefreshBatchSize),
		WorkerPoolSize:     getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:    getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("backoffice", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		refreshIntervalStr = cfg.RefreshInterval.String()
		cacheTTLStr        = cfg.CatalogCacheTTL.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for catalog cache (empty disables caching)")
	fs.Int64Var(&cfg.SharedShippingFee, "shipping-fee", cfg.SharedShippingFee, "Shared per-order shipping fee in currency units")
	fs.IntVar(&cfg.MaxAllocationBatch, "alloc-batch", cfg.MaxAllocationBatch, "Maximum vendor names per allocation call")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent settlement refresh workers")
	fs.IntVar(&cfg.RefreshBatchSize, "refresh-batch", cfg.RefreshBatchSize, "Maximum summaries per refresh cycle")
	fs.StringVar(&refreshIntervalStr, "refresh-interval", refreshIntervalStr, "Interval between settlement refresh cycles")
	fs.StringVar(&cacheTTLStr, "cache-ttl", cacheTTLStr, "Catalog cache entry TTL")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.RefreshInterval, err = time.ParseDuration(refreshIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid refresh interval: %w", err)
	}

	if cfg.CatalogCacheTTL, err = time.ParseDuration(cacheTTLStr); err != nil {
		return nil, fmt.Errorf("invalid cache ttl: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.SharedShippingFee < 0 {
		cfg.SharedShippingFee = defaultSharedShippingFee
	}

	if cfg.MaxAllocationBatch <= 0 {
		cfg.MaxAllocationBatch = defaultMaxAllocationBatch
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.RefreshBatchSize <= 0 {
		cfg.RefreshBatchSize = defaultRefreshBatchSize
	}

	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}

	if cfg.CatalogCacheTTL <= 0 {
		cfg.CatalogCacheTTL = defaultCatalogCacheTTL
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
