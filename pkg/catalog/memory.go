package catalog

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/matst80/slask-gallery/pkg/resolver"
	"github.com/matst80/slask-gallery/pkg/sorting"
	"github.com/matst80/slask-gallery/pkg/types"
)

// MemoryCatalog serves a static data set through both fetcher interfaces.
// Cursors are offsets encoded as strings.
type MemoryCatalog struct {
	mu          sync.RWMutex
	all         []types.Artwork
	curated     []types.Artwork
	collections map[string][]types.Artwork
	failures    map[string]error
	requests    []PageRequest
}

func NewMemoryCatalog(all []types.Artwork, curated []types.Artwork) *MemoryCatalog {
	return &MemoryCatalog{
		all:         all,
		curated:     curated,
		collections: make(map[string][]types.Artwork),
		failures:    make(map[string]error),
	}
}

// IndexCollections adds every item to the collections its own filter values
// resolve to, the way the storefront groups products.
func (m *MemoryCatalog) IndexCollections(r *resolver.Resolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.all {
		seen := map[string]struct{}{}
		for _, dim := range types.Dimensions {
			for _, value := range item.Values(dim) {
				for _, handle := range r.HandlesFor(dim, value) {
					if _, ok := seen[handle]; ok {
						continue
					}
					seen[handle] = struct{}{}
					m.collections[handle] = append(m.collections[handle], item)
				}
			}
		}
	}
}

func (m *MemoryCatalog) SetCollection(handle string, items []types.Artwork) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[handle] = items
}

// FailCollection makes every fetch of the handle return err, nil clears it.
func (m *MemoryCatalog) FailCollection(handle string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, handle)
		return
	}
	m.failures[handle] = err
}

func (m *MemoryCatalog) Requests() []PageRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.requests)
}

func (m *MemoryCatalog) FetchPage(ctx context.Context, req PageRequest) (*CatalogPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.failures[req.CollectionHandle]; ok {
		trackRequest("memory", err)
		return nil, err
	}
	source := m.all
	if req.CollectionHandle != "" {
		items, ok := m.collections[req.CollectionHandle]
		if !ok {
			trackRequest("memory", nil)
			return &CatalogPage{Items: []types.Artwork{}}, nil
		}
		source = items
	}
	source = sorting.SortUpstream(source, req.Sort)

	offset := 0
	if req.After != "" {
		o, err := strconv.Atoi(req.After)
		if err != nil || o < 0 {
			err = fmt.Errorf("%w: invalid cursor %q", ErrUpstream, req.After)
			trackRequest("memory", err)
			return nil, err
		}
		offset = o
	}
	first := req.First
	if first <= 0 {
		first = types.DefaultPageSize
	}
	start := min(offset, len(source))
	end := min(start+first, len(source))
	trackRequest("memory", nil)
	return &CatalogPage{
		Items: slices.Clone(source[start:end]),
		PageInfo: PageInfo{
			HasNextPage: end < len(source),
			EndCursor:   strconv.Itoa(end),
		},
	}, nil
}

func (m *MemoryCatalog) FetchCurated(ctx context.Context) (*CatalogPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	trackRequest("memory_curated", nil)
	return curatedPage(slices.Clone(m.curated)), nil
}

type memoryFile struct {
	Artworks []types.Artwork `json:"artworks"`
	Curated  []string        `json:"curated"`
}

// LoadMemoryCatalog reads {"artworks": [...], "curated": ["<id>", ...]}
// and indexes collections with the resolver.
func LoadMemoryCatalog(path string, r *resolver.Resolver) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file memoryFile
	if err = sonic.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	byId := make(map[string]types.Artwork, len(file.Artworks))
	for i := range file.Artworks {
		file.Artworks[i].Source = types.SourceCatalog
		if file.Artworks[i].ArtistSlug == "" {
			file.Artworks[i].ArtistSlug = resolver.Slugify(file.Artworks[i].ArtistName)
		}
		byId[file.Artworks[i].Id] = file.Artworks[i]
	}
	curated := make([]types.Artwork, 0, len(file.Curated))
	for _, id := range file.Curated {
		item, ok := byId[id]
		if !ok {
			continue
		}
		item.Source = types.SourceCurated
		curated = append(curated, item)
	}
	m := NewMemoryCatalog(file.Artworks, curated)
	m.IndexCollections(r)
	return m, nil
}
