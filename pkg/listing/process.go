package listing

import (
	"github.com/matst80/slask-gallery/pkg/facet"
	"github.com/matst80/slask-gallery/pkg/sorting"
	"github.com/matst80/slask-gallery/pkg/types"
)

func flatten(pages []types.PageResult) []types.Artwork {
	size := 0
	for i := range pages {
		size += len(pages[i].Items)
	}
	ret := make([]types.Artwork, 0, size)
	for i := range pages {
		ret = append(ret, pages[i].Items...)
	}
	return ret
}

// Process turns the loaded pages into the visible list: duplicates across
// pages are removed first, then the filters and the sort are applied.
func Process(pages []types.PageResult, filters types.FilterState, sort types.SortOption) []types.Artwork {
	return sorting.Sort(facet.Filter(types.Dedup(flatten(pages)), filters), sort)
}
