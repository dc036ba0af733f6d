package catalog

import (
	"context"
	"errors"

	"github.com/matst80/slask-gallery/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ErrUpstream = errors.New("upstream request failed")

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgallery_upstream_requests_total",
		Help: "The total number of catalog and content requests",
	}, []string{"kind"})
	upstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgallery_upstream_failures_total",
		Help: "The total number of failed catalog and content requests",
	}, []string{"kind"})
)

type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type CatalogPage struct {
	Items    []types.Artwork `json:"items"`
	PageInfo PageInfo        `json:"pageInfo"`
}

// PageRequest addresses one page of the catalog. An empty CollectionHandle
// means the full unfiltered feed.
type PageRequest struct {
	After            string           `json:"after,omitempty"`
	First            int              `json:"first"`
	CollectionHandle string           `json:"collectionHandle,omitempty"`
	Sort             types.SortOption `json:"sort,omitempty"`
}

// CatalogFetcher returns one page of catalog items. Errors are passed on to
// the caller, retrying is up to the caller.
type CatalogFetcher interface {
	FetchPage(ctx context.Context, req PageRequest) (*CatalogPage, error)
}

// CuratedFetcher returns the full curated set. HasNextPage is always true,
// it tells the caller that the following page comes from the catalog.
type CuratedFetcher interface {
	FetchCurated(ctx context.Context) (*CatalogPage, error)
}

type CatalogFetcherFunc func(ctx context.Context, req PageRequest) (*CatalogPage, error)

func (f CatalogFetcherFunc) FetchPage(ctx context.Context, req PageRequest) (*CatalogPage, error) {
	return f(ctx, req)
}

func curatedPage(items []types.Artwork) *CatalogPage {
	return &CatalogPage{
		Items:    items,
		PageInfo: PageInfo{HasNextPage: true},
	}
}

func trackRequest(kind string, err error) {
	upstreamRequests.WithLabelValues(kind).Inc()
	if err != nil {
		upstreamFailures.WithLabelValues(kind).Inc()
	}
}
