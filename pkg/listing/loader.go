package listing

import (
	"context"
	"fmt"

	"github.com/matst80/slask-gallery/pkg/catalog"
	"github.com/matst80/slask-gallery/pkg/merge"
	"github.com/matst80/slask-gallery/pkg/resolver"
	"github.com/matst80/slask-gallery/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultCuratedLimit caps the curated stage.
const DefaultCuratedLimit = 48

var loadedPages = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "slaskgallery_listing_pages_total",
	Help: "The total number of listing pages loaded",
}, []string{"source", "mode"})

// Loader fetches a single page for a page param. It keeps no state between
// calls and is shared by all sessions.
type Loader struct {
	Curated      catalog.CuratedFetcher
	Catalog      catalog.CatalogFetcher
	Engine       *merge.Engine
	Resolver     *resolver.Resolver
	CuratedLimit int
}

func NewLoader(curated catalog.CuratedFetcher, fetcher catalog.CatalogFetcher, r *resolver.Resolver) *Loader {
	if r == nil {
		r = resolver.NewDefaultResolver()
	}
	return &Loader{
		Curated:      curated,
		Catalog:      fetcher,
		Engine:       merge.NewEngine(fetcher),
		Resolver:     r,
		CuratedLimit: DefaultCuratedLimit,
	}
}

// LoadPage fetches the page addressed by param. Filters only matter for the
// first catalog page, where they decide between merging collections and the
// unfiltered feed.
func (l *Loader) LoadPage(ctx context.Context, param types.PageParam, filters types.FilterState, pageSize int, sort types.SortOption) (*types.PageResult, error) {
	if pageSize <= 0 {
		pageSize = types.DefaultPageSize
	}
	switch param.Source {
	case types.SourceCurated:
		return l.loadCurated(ctx)
	case types.SourceCatalog:
		if param.IsMultiCollection() {
			return l.merge(ctx, param, pageSize, sort)
		}
		if param.Cursor == "" {
			if res := l.Resolver.Resolve(filters); !res.IsEmpty() {
				return l.merge(ctx, types.PageParam{Source: types.SourceCatalog, Handles: res.Handles}, pageSize, sort)
			}
		}
		return l.loadCatalog(ctx, param.Cursor, pageSize, sort)
	}
	return nil, fmt.Errorf("%w: unknown source %q", types.ErrInvalidToken, param.Source)
}

func (l *Loader) loadCurated(ctx context.Context) (*types.PageResult, error) {
	items := []types.Artwork{}
	if l.Curated != nil {
		page, err := l.Curated.FetchCurated(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load curated set: %w", err)
		}
		items = types.Dedup(page.Items)
	}
	if l.CuratedLimit > 0 && len(items) > l.CuratedLimit {
		items = items[:l.CuratedLimit]
	}
	loadedPages.WithLabelValues(string(types.SourceCurated), "curated").Inc()
	// the curated stage always hands over to the catalog
	return &types.PageResult{
		Source:      types.SourceCurated,
		Items:       items,
		HasNextPage: true,
	}, nil
}

func (l *Loader) loadCatalog(ctx context.Context, after string, pageSize int, sort types.SortOption) (*types.PageResult, error) {
	page, err := l.Catalog.FetchPage(ctx, catalog.PageRequest{
		After: after,
		First: pageSize,
		Sort:  sort,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog page: %w", err)
	}
	loadedPages.WithLabelValues(string(types.SourceCatalog), "feed").Inc()
	seen := types.SeenSet{}
	items := make([]types.Artwork, 0, len(page.Items))
	for i := range page.Items {
		if seen.Mark(&page.Items[i]) {
			items = append(items, page.Items[i])
		}
	}
	return &types.PageResult{
		Source:      types.SourceCatalog,
		Items:       items,
		HasNextPage: page.PageInfo.HasNextPage,
		EndCursor:   page.PageInfo.EndCursor,
	}, nil
}

func (l *Loader) merge(ctx context.Context, param types.PageParam, pageSize int, sort types.SortOption) (*types.PageResult, error) {
	res, err := l.Engine.FetchPage(ctx, param, pageSize, sort)
	if err != nil {
		return nil, err
	}
	loadedPages.WithLabelValues(string(types.SourceCatalog), "merge").Inc()
	return res, nil
}
