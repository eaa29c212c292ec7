package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/inconshreveable/log15"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/metrics"
)

// MetadataConfig tunes the off-chain metadata JSON fetcher.
type MetadataConfig struct {
	// Disabled turns off URI fetching entirely; aggregates keep a nil
	// MetadataJSON.
	Disabled bool `toml:",omitempty"`
	// Concurrency bounds the number of in-flight URI fetches.
	Concurrency int64 `toml:",omitempty"`
	// RequestsPerSecond rate-limits outbound fetches; 0 means unlimited.
	RequestsPerSecond float64 `toml:",omitempty"`
	// CacheSize is the number of URI documents memoized. Documents are
	// immutable in practice, so the cache never needs invalidation.
	CacheSize int `toml:",omitempty"`
	// Timeout applies per request.
	Timeout time.Duration `toml:",omitempty"`
	// MaxDocumentSize caps the accepted response body.
	MaxDocumentSize int64 `toml:",omitempty"`
}

// DefaultMetadataConfig is the default metadata fetcher configuration.
var DefaultMetadataConfig = MetadataConfig{
	Concurrency:       16,
	RequestsPerSecond: 50,
	CacheSize:         1024,
	Timeout:           10 * time.Second,
	MaxDocumentSize:   1 << 20,
}

var (
	metadataFetchCounter = metrics.NewCounter("resolver/metadata/fetched")
	metadataErrorCounter = metrics.NewCounter("resolver/metadata/errors")
	metadataCacheCounter = metrics.NewCounter("resolver/metadata/cached")
)

// MetadataFetcher loads the off-chain JSON documents referenced by metadata
// record URIs. Failures are isolated per item: a fetch that errors leaves
// that aggregate's MetadataJSON nil and never affects siblings.
type MetadataFetcher struct {
	client  *http.Client
	cfg     MetadataConfig
	limiter *rate.Limiter
	cache   *lru.Cache
	log     log.Logger
}

// NewMetadataFetcher creates a fetcher over the given HTTP client. A nil
// client uses a default with the configured timeout.
func NewMetadataFetcher(client *http.Client, cfg MetadataConfig) *MetadataFetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultMetadataConfig.Concurrency
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultMetadataConfig.CacheSize
	}
	if cfg.MaxDocumentSize <= 0 {
		cfg.MaxDocumentSize = DefaultMetadataConfig.MaxDocumentSize
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultMetadataConfig.Timeout
		}
		client = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.Concurrency))
	}
	cache, _ := lru.New(cfg.CacheSize)
	return &MetadataFetcher{
		client:  client,
		cfg:     cfg,
		limiter: limiter,
		cache:   cache,
		log:     log.New("module", "resolver/metadata"),
	}
}

// FetchAll populates MetadataJSON for every aggregate whose metadata record
// carries a URI. Fetches run concurrently under the configured bound; the
// only error returned is context cancellation.
func (f *MetadataFetcher) FetchAll(ctx context.Context, tokens []*types.TokenData) error {
	sem := semaphore.NewWeighted(f.cfg.Concurrency)
	for _, td := range tokens {
		if td.Metadata == nil || td.Metadata.URI == "" {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		td := td
		go func() {
			defer sem.Release(1)
			doc, err := f.fetch(ctx, td.Metadata.URI)
			if err != nil {
				metadataErrorCounter.Inc(1)
				f.log.Debug("metadata fetch failed", "mint", td.MintAddress(), "uri", td.Metadata.URI, "err", err)
				return
			}
			td.MetadataJSON = doc
		}()
	}
	// Draining the semaphore waits for all in-flight fetches.
	if err := sem.Acquire(ctx, f.cfg.Concurrency); err != nil {
		return err
	}
	sem.Release(f.cfg.Concurrency)
	return nil
}

func (f *MetadataFetcher) fetch(ctx context.Context, uri string) (*types.MetadataJSON, error) {
	if cached, ok := f.cache.Get(uri); ok {
		metadataCacheCounter.Inc(1)
		return cached.(*types.MetadataJSON), nil
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxDocumentSize))
	if err != nil {
		return nil, err
	}
	doc := new(types.MetadataJSON)
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, err
	}
	metadataFetchCounter.Inc(1)
	f.cache.Add(uri, doc)
	return doc, nil
}
