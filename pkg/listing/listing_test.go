package listing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matst80/slask-gallery/pkg/catalog"
	"github.com/matst80/slask-gallery/pkg/resolver"
	"github.com/matst80/slask-gallery/pkg/types"
)

type curatedFunc func(ctx context.Context) (*catalog.CatalogPage, error)

func (f curatedFunc) FetchCurated(ctx context.Context) (*catalog.CatalogPage, error) {
	return f(ctx)
}

func withStyle(items []types.Artwork, style string) []types.Artwork {
	for i := range items {
		items[i].Styles = []string{style}
	}
	return items
}

func newListing(m *catalog.MemoryCatalog, filters types.FilterState, opts Options) *Listing {
	return New(NewLoader(m, m, resolver.NewDefaultResolver()), filters, opts)
}

func TestStageTransition(t *testing.T) {
	m := catalog.NewMemoryCatalog(types.MakeMockArtworks("c", 30), types.MakeMockArtworks("k", 3))
	l := newListing(m, types.FilterState{}, DefaultOptions())
	ctx := context.Background()

	if err := l.Load(ctx); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	s := l.Snapshot()
	if s.Stage != types.SourceCurated || len(s.Items) != 3 || !s.HasNextPage {
		t.Errorf("Expected curated stage with 3 items and a next page, got %s %d %v", s.Stage, len(s.Items), s.HasNextPage)
	}
	if len(m.Requests()) != 0 {
		t.Errorf("Expected no catalog requests during curated stage, got %d", len(m.Requests()))
	}

	ok, err := l.FetchNextPage(ctx)
	if !ok || err != nil {
		t.Fatalf("Expected next page, got %v %v", ok, err)
	}
	s = l.Snapshot()
	if s.Stage != types.SourceCatalog || len(s.Items) != 27 {
		t.Errorf("Expected catalog stage with 27 items, got %s %d", s.Stage, len(s.Items))
	}
	reqs := m.Requests()
	if len(reqs) != 1 || reqs[0].CollectionHandle != "" || reqs[0].After != "" || reqs[0].First != types.DefaultPageSize {
		t.Errorf("Expected one unfiltered catalog request, got %+v", reqs)
	}

	if ok, _ = l.FetchNextPage(ctx); !ok {
		t.Fatal("Expected third page")
	}
	if len(l.Items()) != 33 || l.HasNextPage() || l.ShowMore() {
		t.Errorf("Expected 33 items and no more pages, got %d %v", len(l.Items()), l.HasNextPage())
	}
	if ok, err = l.FetchNextPage(ctx); ok || err != nil {
		t.Errorf("Expected no-op at the end, got %v %v", ok, err)
	}
}

func TestCuratedStageAlwaysHandsOver(t *testing.T) {
	m := catalog.NewMemoryCatalog(types.MakeMockArtworks("c", 2), nil)
	l := newListing(m, types.FilterState{}, DefaultOptions())
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !l.HasNextPage() {
		t.Error("Expected empty curated stage to report a next page")
	}
	if ok, err := l.FetchNextPage(context.Background()); !ok || err != nil {
		t.Fatalf("Expected catalog page, got %v %v", ok, err)
	}
	if len(l.Items()) != 2 {
		t.Errorf("Expected catalog items, got %d", len(l.Items()))
	}
}

func TestCuratedLimit(t *testing.T) {
	m := catalog.NewMemoryCatalog(nil, types.MakeMockArtworks("k", 10))
	loader := NewLoader(m, m, nil)
	loader.CuratedLimit = 4
	l := New(loader, types.FilterState{}, DefaultOptions())
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(l.Items()) != 4 {
		t.Errorf("Expected 4 curated items, got %d", len(l.Items()))
	}
}

func TestFiltersUseCollections(t *testing.T) {
	items := append(withStyle(types.MakeMockArtworks("abs", 3), "Abstract"), withStyle(types.MakeMockArtworks("pop", 5), "Pop")...)
	m := catalog.NewMemoryCatalog(items, withStyle(types.MakeMockArtworks("k", 2), "Pop"))
	m.IndexCollections(resolver.NewDefaultResolver())
	l := newListing(m, types.FilterState{Styles: []string{"Abstract"}}, DefaultOptions())
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	// curated items are filtered away so the first catalog page loads on its own
	s := l.Snapshot()
	if len(s.Items) != 3 || s.Stage != types.SourceCatalog || s.HasNextPage {
		t.Errorf("Expected 3 abstract items in the catalog stage, got %d %s %v", len(s.Items), s.Stage, s.HasNextPage)
	}
	for _, req := range m.Requests() {
		if req.CollectionHandle != "style-abstract" {
			t.Errorf("Expected collection scoped request, got %+v", req)
		}
	}
}

func TestAutoContinueUntilMatch(t *testing.T) {
	m := catalog.NewMemoryCatalog(nil, nil)
	backing := withStyle(types.MakeMockArtworks("x", 8), "Other")
	backing[5].Styles = []string{"Abstract"}
	m.SetCollection("style-abstract", backing)
	opts := DefaultOptions()
	opts.PageSize = 2
	auto := 0
	opts.OnPage = func(e types.ListingEvent) {
		if e.AutoFetched {
			auto++
		}
	}
	l := newListing(m, types.FilterState{Styles: []string{"Abstract"}}, opts)
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := l.Snapshot()
	if len(s.Items) != 1 || s.Items[0].Id != "x5" {
		t.Errorf("Expected x5 to become visible, got %+v", s.Items)
	}
	if s.Pages != 4 || auto != 3 {
		t.Errorf("Expected curated plus 3 automatic pages, got %d pages %d auto", s.Pages, auto)
	}
	if !s.HasNextPage || s.ShowMore {
		t.Errorf("Expected more pages without a show more control, got %v %v", s.HasNextPage, s.ShowMore)
	}
}

func TestAutoContinueIsCapped(t *testing.T) {
	m := catalog.NewMemoryCatalog(nil, nil)
	m.SetCollection("style-abstract", withStyle(types.MakeMockArtworks("x", 40), "Other"))
	opts := DefaultOptions()
	opts.PageSize = 2
	opts.MaxAutoPages = 3
	l := newListing(m, types.FilterState{Styles: []string{"Abstract"}}, opts)
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := l.Snapshot()
	if s.Pages != 4 || len(s.Items) != 0 || !s.HasNextPage {
		t.Errorf("Expected 4 pages, no items and more available, got %d %d %v", s.Pages, len(s.Items), s.HasNextPage)
	}
}

func TestAutoContinueStopsWhenExhausted(t *testing.T) {
	m := catalog.NewMemoryCatalog(nil, nil)
	l := newListing(m, types.FilterState{Artists: []string{"Nobody"}}, DefaultOptions())
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if l.HasNextPage() || len(l.Items()) != 0 {
		t.Errorf("Expected exhausted empty listing, got %v %d", l.HasNextPage(), len(l.Items()))
	}
	if len(m.Requests()) != 2 {
		t.Errorf("Expected one request per artist handle, got %d", len(m.Requests()))
	}
}

func TestNoAutoContinueWithoutFilters(t *testing.T) {
	m := catalog.NewMemoryCatalog(types.MakeMockArtworks("c", 5), nil)
	l := newListing(m, types.FilterState{}, DefaultOptions())
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(m.Requests()) != 0 || !l.ShowMore() {
		t.Errorf("Expected empty curated stage to wait for the user, got %d requests", len(m.Requests()))
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	var mu sync.Mutex
	curated := curatedFunc(func(ctx context.Context) (*catalog.CatalogPage, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
			return &catalog.CatalogPage{Items: withStyle(types.MakeMockArtworks("old", 2), "Abstract"), PageInfo: catalog.PageInfo{HasNextPage: true}}, nil
		}
		return &catalog.CatalogPage{Items: withStyle(types.MakeMockArtworks("new", 1), "Abstract"), PageInfo: catalog.PageInfo{HasNextPage: true}}, nil
	})
	m := catalog.NewMemoryCatalog(nil, nil)
	opts := DefaultOptions()
	opts.MaxAutoPages = 0
	l := New(NewLoader(curated, m, nil), types.FilterState{}, opts)

	done := make(chan error)
	go func() {
		done <- l.Load(context.Background())
	}()
	<-started
	if err := l.SetFilters(context.Background(), types.FilterState{Styles: []string{"Abstract"}}); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	items := l.Items()
	if len(items) != 1 || items[0].Id != "new0" {
		t.Errorf("Expected only the response for the new filters, got %+v", items)
	}
	if l.Snapshot().Pages != 1 {
		t.Errorf("Expected a single page, got %d", l.Snapshot().Pages)
	}
}

func TestInFlightGuard(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	fetcher := catalog.CatalogFetcherFunc(func(ctx context.Context, req catalog.PageRequest) (*catalog.CatalogPage, error) {
		started <- struct{}{}
		<-release
		return &catalog.CatalogPage{Items: types.MakeMockArtworks("c", 2)}, nil
	})
	l := New(NewLoader(nil, fetcher, nil), types.FilterState{}, DefaultOptions())
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	done := make(chan bool)
	go func() {
		ok, _ := l.FetchNextPage(context.Background())
		done <- ok
	}()
	<-started
	if !l.IsFetchingNextPage() {
		t.Error("Expected fetching flag while a page is loading")
	}
	if ok, err := l.FetchNextPage(context.Background()); ok || err != nil {
		t.Errorf("Expected concurrent fetch to be a no-op, got %v %v", ok, err)
	}
	close(release)
	if !<-done {
		t.Error("Expected first fetch to land")
	}
	if l.IsFetchingNextPage() || len(l.Items()) != 2 {
		t.Errorf("Expected two items after landing, got %d", len(l.Items()))
	}
}

func TestErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := curatedFunc(func(ctx context.Context) (*catalog.CatalogPage, error) {
		return nil, boom
	})
	m := catalog.NewMemoryCatalog(types.MakeMockArtworks("c", 2), nil)
	l := New(NewLoader(failing, m, nil), types.FilterState{}, DefaultOptions())
	if err := l.Load(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
	if !errors.Is(l.Err(), boom) || l.Snapshot().Error == "" {
		t.Error("Expected stored error")
	}
	if _, err := l.FetchNextPage(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Expected ErrNotLoaded, got %v", err)
	}

	m.FailCollection("", boom)
	l = newListing(m, types.FilterState{}, DefaultOptions())
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := l.FetchNextPage(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Expected catalog failure to propagate, got %v", err)
	}
	if !l.HasNextPage() {
		t.Error("Expected next page to stay available after a failure")
	}
	m.FailCollection("", nil)
	if ok, err := l.FetchNextPage(context.Background()); !ok || err != nil || l.Err() != nil {
		t.Errorf("Expected retry to succeed, got %v %v", ok, err)
	}
}

func TestSortIsLocal(t *testing.T) {
	items := types.MakeMockArtworks("c", 3)
	items[0].Price = "30"
	items[1].Price = "10"
	items[2].Price = "20"
	m := catalog.NewMemoryCatalog(items, nil)
	l := newListing(m, types.FilterState{}, DefaultOptions())
	ctx := context.Background()
	if err := l.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := l.FetchNextPage(ctx); err != nil {
		t.Fatal(err)
	}
	requests := len(m.Requests())
	l.SetSort(types.SortPriceAsc)
	got := l.Items()
	if got[0].Id != "c1" || got[1].Id != "c2" || got[2].Id != "c0" {
		t.Errorf("Expected price order, got %v", got)
	}
	if len(m.Requests()) != requests {
		t.Error("Expected sort change not to fetch")
	}
	l.SetSort("bogus")
	if l.Sort() != types.SortDefault || l.Items()[0].Id != "c0" {
		t.Error("Expected unknown sort to fall back to input order")
	}
}

func TestToggleReloads(t *testing.T) {
	items := append(withStyle(types.MakeMockArtworks("abs", 2), "Abstract"), withStyle(types.MakeMockArtworks("pop", 2), "Pop")...)
	m := catalog.NewMemoryCatalog(items, items)
	m.IndexCollections(resolver.NewDefaultResolver())
	l := newListing(m, types.FilterState{}, DefaultOptions())
	ctx := context.Background()
	if err := l.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Toggle(ctx, types.DimensionStyle, "Pop"); err != nil {
		t.Fatal(err)
	}
	s := l.Snapshot()
	if len(s.Items) != 2 || s.Stage != types.SourceCurated || s.Pages != 1 {
		t.Errorf("Expected reloaded curated stage with the pop items, got %d %s %d", len(s.Items), s.Stage, s.Pages)
	}
	if err := l.Toggle(ctx, types.DimensionStyle, "Pop"); err != nil {
		t.Fatal(err)
	}
	if l.Filters().IsActive() || len(l.Items()) != 4 {
		t.Errorf("Expected filters cleared, got %+v", l.Filters())
	}
}

func TestShowMore(t *testing.T) {
	items := withStyle(types.MakeMockArtworks("abs", 10), "Abstract")
	m := catalog.NewMemoryCatalog(items, nil)
	m.IndexCollections(resolver.NewDefaultResolver())
	opts := DefaultOptions()
	opts.PageSize = 4
	l := newListing(m, types.FilterState{Styles: []string{"Abstract"}}, opts)
	if err := l.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(l.Items()) != 4 || !l.ShowMore() {
		t.Errorf("Expected a full filtered page with show more, got %d %v", len(l.Items()), l.ShowMore())
	}
}

func TestProcessDedupsAcrossPages(t *testing.T) {
	shared := types.MakeMockArtwork("shared")
	curated := shared
	curated.Source = types.SourceCurated
	pages := []types.PageResult{
		{Source: types.SourceCurated, Items: []types.Artwork{curated}},
		{Source: types.SourceCatalog, Items: []types.Artwork{shared, types.MakeMockArtwork("other")}},
	}
	got := Process(pages, types.FilterState{}, types.SortDefault)
	if len(got) != 2 || got[0].Source != types.SourceCurated || got[1].Id != "other" {
		t.Errorf("Expected curated copy to win, got %+v", got)
	}
}
