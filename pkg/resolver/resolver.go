package resolver

import (
	"strings"

	"github.com/matst80/slask-gallery/pkg/types"
)

// Resolution is the set of collection handles selected by a filter state.
// Labels maps each handle back to the display value that produced it and
// belongs to the request that resolved it.
type Resolution struct {
	Handles []string
	Labels  map[string]string
}

func (r *Resolution) IsEmpty() bool {
	return len(r.Handles) == 0
}

// Resolver derives handles from selected values. It holds configuration
// only and is safe for concurrent use.
type Resolver struct {
	config Config
}

func NewResolver(config Config) *Resolver {
	return &Resolver{config: config}
}

func NewDefaultResolver() *Resolver {
	return NewResolver(DefaultConfig())
}

// HandlesFor returns the handles backing one selected value.
func (r *Resolver) HandlesFor(dim types.Dimension, value string) []string {
	slug := Slugify(value)
	if slug == "" {
		return nil
	}
	switch dim {
	case types.DimensionStyle:
		return []string{r.config.StylePrefix + slug}
	case types.DimensionCategory:
		return []string{r.config.CategoryPrefix + slug}
	case types.DimensionTheme:
		return []string{r.config.ThemePrefix + slug}
	case types.DimensionArtist:
		ret := make([]string, 0, len(r.config.ArtistSchemes))
		for _, scheme := range r.config.ArtistSchemes {
			ret = append(ret, strings.ReplaceAll(scheme, slugPlaceholder, slug))
		}
		return ret
	}
	return nil
}

// Resolve computes the deduplicated handle set for the filter state. An
// empty result means the unfiltered catalog should be used.
func (r *Resolver) Resolve(filters types.FilterState) Resolution {
	res := Resolution{
		Handles: []string{},
		Labels:  map[string]string{},
	}
	for _, dim := range types.Dimensions {
		for _, value := range filters.Values(dim) {
			for _, handle := range r.HandlesFor(dim, value) {
				if _, found := res.Labels[handle]; found {
					continue
				}
				res.Labels[handle] = strings.TrimSpace(value)
				res.Handles = append(res.Handles, handle)
			}
		}
	}
	return res
}
