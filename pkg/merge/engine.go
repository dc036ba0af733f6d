package merge

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/matst80/slask-gallery/pkg/catalog"
	"github.com/matst80/slask-gallery/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MinFetchSize is the smallest batch requested from a single collection.
const MinFetchSize = 6

var (
	mergedPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgallery_merge_pages_total",
		Help: "The total number of merged multi collection pages",
	})
	collectionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgallery_merge_collection_failures_total",
		Help: "The total number of collection fetches dropped from a merge",
	})
	droppedDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgallery_merge_duplicates_total",
		Help: "The total number of duplicate items discarded while merging",
	})
	mergeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slaskgallery_merge_duration_seconds",
		Help:    "Time spent merging one page",
		Buckets: prometheus.DefBuckets,
	})
)

// Engine merges independently paginated collections into pages of unique
// items. All state lives in the page param, an Engine can be shared.
type Engine struct {
	Fetcher      catalog.CatalogFetcher
	MinFetchSize int
	// Sequential disables concurrent fetching within a round.
	Sequential bool
}

func NewEngine(fetcher catalog.CatalogFetcher) *Engine {
	return &Engine{Fetcher: fetcher, MinFetchSize: MinFetchSize}
}

// FetchSize is the batch size requested per collection.
func (e *Engine) FetchSize(pageSize, handles int) int {
	minSize := e.MinFetchSize
	if minSize <= 0 {
		minSize = MinFetchSize
	}
	if handles <= 0 {
		return minSize
	}
	return max((pageSize+handles-1)/handles, minSize)
}

type fetchResult struct {
	handle string
	page   *catalog.CatalogPage
	err    error
}

// session is the bookkeeping of a single FetchPage call.
type session struct {
	handles []string
	active  map[string]bool
	cursors types.CursorMap
	buffers types.Buffers
	next    int
}

func (s *session) live(handle string) bool {
	return len(s.buffers[handle]) > 0 || s.cursors.State(handle) != types.CursorExhausted
}

func (s *session) needsFetch(handle string) bool {
	return s.active[handle] && len(s.buffers[handle]) == 0 && s.cursors.State(handle) != types.CursorExhausted
}

func (s *session) deactivate(handle string) {
	delete(s.active, handle)
}

// prune drops handles that have nothing buffered and nothing left upstream.
func (s *session) prune() {
	for handle := range s.active {
		if !s.live(handle) {
			s.deactivate(handle)
		}
	}
}

// pick pops the head of the next ready collection in round-robin order.
func (s *session) pick() (types.Artwork, bool) {
	n := len(s.handles)
	for k := range n {
		idx := (s.next + k) % n
		handle := s.handles[idx]
		if !s.active[handle] {
			continue
		}
		buf := s.buffers[handle]
		if len(buf) == 0 {
			continue
		}
		item := buf[0]
		if len(buf) == 1 {
			delete(s.buffers, handle)
		} else {
			s.buffers[handle] = buf[1:]
		}
		s.next = (idx + 1) % n
		return item, true
	}
	return types.Artwork{}, false
}

func (s *session) apply(res fetchResult) {
	if res.err != nil {
		// a failing collection is skipped, the page is served from the rest
		log.Printf("Collection %s failed, skipping it: %v", res.handle, res.err)
		collectionFailures.Inc()
		s.cursors.Exhaust(res.handle)
		s.deactivate(res.handle)
		return
	}
	previous := s.cursors.After(res.handle)
	info := res.page.PageInfo
	if len(res.page.Items) > 0 {
		s.buffers[res.handle] = append(s.buffers[res.handle], res.page.Items...)
	}
	if info.HasNextPage && len(res.page.Items) == 0 && (info.EndCursor == "" || info.EndCursor == previous) {
		log.Printf("Collection %s returned no items without advancing, treating as exhausted", res.handle)
		s.cursors.Exhaust(res.handle)
		return
	}
	s.cursors.SetNext(res.handle, info.HasNextPage, info.EndCursor)
}

func (e *Engine) fetchOne(ctx context.Context, handle, after string, size int, sort types.SortOption) fetchResult {
	page, err := e.Fetcher.FetchPage(ctx, catalog.PageRequest{
		After:            after,
		First:            size,
		CollectionHandle: handle,
		Sort:             sort,
	})
	if err == nil && page == nil {
		page = &catalog.CatalogPage{}
	}
	return fetchResult{handle: handle, page: page, err: err}
}

// fill fetches one batch for every active collection with an empty buffer.
// Results are applied in handle order once all requests are done.
func (e *Engine) fill(ctx context.Context, s *session, size int, sort types.SortOption) {
	pending := make([]string, 0, len(s.handles))
	for _, handle := range s.handles {
		if s.needsFetch(handle) {
			pending = append(pending, handle)
		}
	}
	if len(pending) == 0 {
		return
	}
	results := make([]fetchResult, len(pending))
	if e.Sequential || len(pending) == 1 {
		for i, handle := range pending {
			results[i] = e.fetchOne(ctx, handle, s.cursors.After(handle), size, sort)
		}
	} else {
		wg := &sync.WaitGroup{}
		for i, handle := range pending {
			after := s.cursors.After(handle)
			wg.Add(1)
			go func(i int, handle, after string) {
				defer wg.Done()
				results[i] = e.fetchOne(ctx, handle, after, size, sort)
			}(i, handle, after)
		}
		wg.Wait()
	}
	for _, res := range results {
		s.apply(res)
	}
}

// FetchPage delivers up to pageSize unique items from the collections named
// in param, resuming from its cursors and buffers.
func (e *Engine) FetchPage(ctx context.Context, param types.PageParam, pageSize int, sort types.SortOption) (*types.PageResult, error) {
	if len(param.Handles) == 0 {
		return &types.PageResult{Source: types.SourceCatalog, Items: []types.Artwork{}}, nil
	}
	start := time.Now()
	defer func() {
		mergeDuration.Observe(time.Since(start).Seconds())
	}()
	if pageSize <= 0 {
		pageSize = types.DefaultPageSize
	}

	s := &session{
		handles: slices.Clone(param.Handles),
		active:  make(map[string]bool, len(param.Handles)),
		cursors: param.Cursors.Clone(),
		buffers: param.Buffers.Clone(),
		next:    param.Next,
	}
	if s.next < 0 || s.next >= len(s.handles) {
		s.next = 0
	}
	for _, handle := range s.handles {
		if s.live(handle) {
			s.active[handle] = true
		}
	}

	size := e.FetchSize(pageSize, len(s.handles))
	delivered := make([]types.Artwork, 0, pageSize)
	seen := types.SeenSet{}

	for len(delivered) < pageSize && len(s.active) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.fill(ctx, s, size, sort)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if item, ok := s.pick(); ok {
			if seen.Mark(&item) {
				delivered = append(delivered, item)
			} else {
				droppedDuplicates.Inc()
			}
		}
		s.prune()
	}
	mergedPages.Inc()

	hasNext := false
	for _, handle := range s.handles {
		if len(s.buffers[handle]) > 0 || s.cursors.State(handle) == types.CursorActive {
			hasNext = true
			break
		}
	}
	return &types.PageResult{
		Source:      types.SourceCatalog,
		Items:       delivered,
		HasNextPage: hasNext,
		Handles:     s.handles,
		Cursors:     s.cursors,
		Buffers:     s.buffers,
		Next:        s.next,
	}, nil
}
