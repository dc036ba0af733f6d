package facet

import (
	"strings"

	"github.com/matst80/slask-gallery/pkg/types"
)

func matchesAny(values []string, selected []string) bool {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		for _, s := range selected {
			if v == strings.TrimSpace(s) {
				return true
			}
		}
	}
	return false
}

// Match reports whether the item passes every active dimension. Values must
// match exactly after trimming.
func Match(item *types.Artwork, filters *types.FilterState) bool {
	for _, dim := range types.Dimensions {
		selected := filters.Values(dim)
		if len(selected) == 0 {
			continue
		}
		if !matchesAny(item.Values(dim), selected) {
			return false
		}
	}
	return true
}

func Filter(items []types.Artwork, filters types.FilterState) []types.Artwork {
	if !filters.IsActive() {
		return items
	}
	ret := make([]types.Artwork, 0, len(items))
	for i := range items {
		if Match(&items[i], &filters) {
			ret = append(ret, items[i])
		}
	}
	return ret
}
