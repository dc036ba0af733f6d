package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/matst80/slask-gallery/pkg/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const DefaultTTL = 5 * time.Minute

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgallery_cache_hits_total",
		Help: "The total number of catalog pages served from redis",
	}, []string{"kind"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgallery_cache_misses_total",
		Help: "The total number of catalog pages fetched upstream",
	}, []string{"kind"})
	cacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgallery_cache_errors_total",
		Help: "The total number of redis errors, the request falls through to upstream",
	})
)

// PageKey identifies one upstream page request.
func PageKey(req catalog.PageRequest) string {
	return fmt.Sprintf("page:%s:%s:%d:%s", req.CollectionHandle, req.Sort, req.First, req.After)
}

const curatedKey = "curated"

// Fetcher is a read through cache in front of the catalog and content
// fetchers. Redis failures are logged and the upstream is used directly.
// Errors are never cached.
type Fetcher struct {
	Cache   *Cache
	Catalog catalog.CatalogFetcher
	Content catalog.CuratedFetcher
	TTL     time.Duration
}

func NewFetcher(c *Cache, catalogFetcher catalog.CatalogFetcher, content catalog.CuratedFetcher, ttl time.Duration) *Fetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Fetcher{Cache: c, Catalog: catalogFetcher, Content: content, TTL: ttl}
}

func (f *Fetcher) cached(ctx context.Context, kind, key string, load func() (*catalog.CatalogPage, error)) (*catalog.CatalogPage, error) {
	version, err := f.Cache.Version(ctx)
	if err != nil {
		cacheErrors.Inc()
		log.Printf("Failed to read cache version: %v", err)
		return load()
	}
	var page catalog.CatalogPage
	err = f.Cache.Get(ctx, version, key, &page)
	if err == nil {
		cacheHits.WithLabelValues(kind).Inc()
		return &page, nil
	}
	if !errors.Is(err, ErrMiss) {
		cacheErrors.Inc()
		log.Printf("Failed to read %s from cache: %v", key, err)
	}
	cacheMisses.WithLabelValues(kind).Inc()
	res, err := load()
	if err != nil {
		return nil, err
	}
	if err = f.Cache.Set(ctx, version, key, res, f.TTL); err != nil {
		cacheErrors.Inc()
		log.Printf("Failed to store %s in cache: %v", key, err)
	}
	return res, nil
}

func (f *Fetcher) FetchPage(ctx context.Context, req catalog.PageRequest) (*catalog.CatalogPage, error) {
	return f.cached(ctx, "page", PageKey(req), func() (*catalog.CatalogPage, error) {
		return f.Catalog.FetchPage(ctx, req)
	})
}

func (f *Fetcher) FetchCurated(ctx context.Context) (*catalog.CatalogPage, error) {
	if f.Content == nil {
		return nil, errors.New("no curated source configured")
	}
	return f.cached(ctx, "curated", curatedKey, func() (*catalog.CatalogPage, error) {
		return f.Content.FetchCurated(ctx)
	})
}
