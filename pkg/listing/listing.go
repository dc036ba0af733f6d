package listing

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/matst80/slask-gallery/pkg/facet"
	"github.com/matst80/slask-gallery/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ErrNotLoaded = errors.New("listing not loaded")

// DefaultMaxAutoPages bounds automatic continuation after one page lands.
const DefaultMaxAutoPages = 10

var (
	staleResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgallery_listing_stale_responses_total",
		Help: "The total number of page responses discarded after a filter change",
	})
	autoPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgallery_listing_auto_pages_total",
		Help: "The total number of pages fetched automatically for empty filtered results",
	})
)

type Options struct {
	PageSize     int
	MaxAutoPages int
	Sort         types.SortOption
	// OnPage is called outside the lock for every page that lands.
	OnPage func(types.ListingEvent)
}

func DefaultOptions() Options {
	return Options{
		PageSize:     types.DefaultPageSize,
		MaxAutoPages: DefaultMaxAutoPages,
		Sort:         types.SortDefault,
	}
}

// Listing is the paginated artwork list of one visitor. Pages are loaded
// through the Loader, everything else is local.
type Listing struct {
	mu         sync.Mutex
	loader     *Loader
	opts       Options
	filters    types.FilterState
	sort       types.SortOption
	pages      []types.PageResult
	next       *types.PageParam
	loaded     bool
	inFlight   bool
	generation uint64
	err        error
}

func New(loader *Loader, filters types.FilterState, opts Options) *Listing {
	if opts.PageSize <= 0 {
		opts.PageSize = types.DefaultPageSize
	}
	if opts.MaxAutoPages < 0 {
		opts.MaxAutoPages = 0
	}
	filters = filters.Clone()
	filters.Sanitize()
	sort := opts.Sort
	if sort == "" {
		sort = types.SortDefault
	}
	return &Listing{
		loader:  loader,
		opts:    opts,
		filters: filters,
		sort:    sort,
	}
}

// Load drops everything loaded so far and fetches the curated stage again.
func (l *Listing) Load(ctx context.Context) error {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.pages = nil
	l.next = nil
	l.loaded = false
	l.err = nil
	l.inFlight = true
	filters := l.filters.Clone()
	l.mu.Unlock()

	res, err := l.loader.LoadPage(ctx, types.InitialPageParam(), filters, l.opts.PageSize, types.SortDefault)
	if stale := l.land(gen, res, err, false); stale {
		return nil
	}
	if err != nil {
		return err
	}
	return l.autoContinue(ctx)
}

// FetchNextPage loads the following page. It returns false without doing
// anything when a fetch is already running or there is nothing left.
func (l *Listing) FetchNextPage(ctx context.Context) (bool, error) {
	ok, err := l.fetchNext(ctx, false)
	if !ok || err != nil {
		return ok, err
	}
	return true, l.autoContinue(ctx)
}

func (l *Listing) fetchNext(ctx context.Context, auto bool) (bool, error) {
	l.mu.Lock()
	if l.inFlight {
		l.mu.Unlock()
		return false, nil
	}
	if !l.loaded {
		l.mu.Unlock()
		return false, ErrNotLoaded
	}
	if l.next == nil {
		l.mu.Unlock()
		return false, nil
	}
	l.inFlight = true
	gen := l.generation
	param := *l.next
	filters := l.filters.Clone()
	l.mu.Unlock()

	// upstream order is kept, sorting is applied locally
	res, err := l.loader.LoadPage(ctx, param, filters, l.opts.PageSize, types.SortDefault)
	if stale := l.land(gen, res, err, auto); stale {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// land stores a fetched page unless the listing moved to a newer generation
// while it was loading.
func (l *Listing) land(gen uint64, res *types.PageResult, err error, auto bool) bool {
	l.mu.Lock()
	if gen != l.generation {
		l.mu.Unlock()
		staleResponses.Inc()
		return true
	}
	l.inFlight = false
	if err != nil {
		l.err = err
		l.mu.Unlock()
		log.Printf("Failed to load listing page: %v", err)
		return false
	}
	l.err = nil
	l.loaded = true
	l.pages = append(l.pages, *res)
	if next, ok := res.NextParam(); ok {
		l.next = &next
	} else {
		l.next = nil
	}
	event := types.ListingEvent{
		Filters:     l.filters.Clone(),
		Sort:        l.sort,
		Source:      res.Source,
		Delivered:   len(res.Items),
		Visible:     len(l.items()),
		HasNextPage: l.next != nil,
		AutoFetched: auto,
	}
	l.mu.Unlock()
	if l.opts.OnPage != nil {
		l.opts.OnPage(event)
	}
	return false
}

func (l *Listing) needsAutoFetch() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded && !l.inFlight && l.next != nil && l.filters.IsActive() && len(l.items()) == 0
}

// autoContinue keeps loading while active filters hide every loaded item and
// more pages exist.
func (l *Listing) autoContinue(ctx context.Context) error {
	for range l.opts.MaxAutoPages {
		if !l.needsAutoFetch() {
			return nil
		}
		autoPages.Inc()
		ok, err := l.fetchNext(ctx, true)
		if err != nil || !ok {
			return err
		}
	}
	if l.needsAutoFetch() {
		log.Printf("Stopped automatic loading after %d pages without visible items", l.opts.MaxAutoPages)
	}
	return nil
}

func (l *Listing) items() []types.Artwork {
	return Process(l.pages, l.filters, l.sort)
}

func (l *Listing) Items() []types.Artwork {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items()
}

func (l *Listing) HasNextPage() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.next != nil
}

func (l *Listing) IsFetchingNextPage() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight && l.loaded
}

func (l *Listing) showMore(visible int) bool {
	return l.next != nil && (!l.filters.IsActive() || visible >= l.opts.PageSize)
}

// ShowMore reports whether a load more control should be offered.
func (l *Listing) ShowMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.showMore(len(l.items()))
}

func (l *Listing) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Listing) Filters() types.FilterState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filters.Clone()
}

// SetFilters replaces the filters and reloads from the curated stage. Pages
// still loading for the previous filters are discarded.
func (l *Listing) SetFilters(ctx context.Context, filters types.FilterState) error {
	filters = filters.Clone()
	filters.Sanitize()
	l.mu.Lock()
	if l.loaded && l.filters.Equal(filters) {
		l.mu.Unlock()
		return nil
	}
	l.filters = filters
	l.mu.Unlock()
	return l.Load(ctx)
}

func (l *Listing) Toggle(ctx context.Context, dim types.Dimension, value string) error {
	filters := l.Filters()
	filters.Toggle(dim, value)
	return l.SetFilters(ctx, filters)
}

func (l *Listing) Sort() types.SortOption {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sort
}

// SetSort only reorders the loaded items.
func (l *Listing) SetSort(sort types.SortOption) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sort = types.ParseSortOption(string(sort))
}

type Snapshot struct {
	Items              []types.Artwork          `json:"items"`
	HasNextPage        bool                     `json:"hasNextPage"`
	IsFetchingNextPage bool                     `json:"isFetchingNextPage"`
	ShowMore           bool                     `json:"showMore"`
	Filters            types.FilterState        `json:"filters"`
	Sort               types.SortOption         `json:"sort"`
	Stage              types.Source             `json:"stage"`
	Pages              int                      `json:"pages"`
	Options            []facet.DimensionOptions `json:"options"`
	Error              string                   `json:"error,omitempty"`
}

// Snapshot returns a consistent view of the listing for rendering.
func (l *Listing) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := l.items()
	s := Snapshot{
		Items:              items,
		HasNextPage:        l.next != nil,
		IsFetchingNextPage: l.inFlight && l.loaded,
		ShowMore:           l.showMore(len(items)),
		Filters:            l.filters.Clone(),
		Sort:               l.sort,
		Stage:              types.SourceCurated,
		Pages:              len(l.pages),
		Options:            facet.Options(types.Dedup(flatten(l.pages)), l.filters),
	}
	if len(l.pages) > 0 {
		s.Stage = l.pages[len(l.pages)-1].Source
	}
	if l.err != nil {
		s.Error = l.err.Error()
	}
	return s
}
