package facet

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matst80/slask-gallery/pkg/types"
)

type OptionValue struct {
	Value    string `json:"value"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected,omitempty"`
}

type DimensionOptions struct {
	Dimension types.Dimension `json:"dimension"`
	Values    []OptionValue   `json:"values"`
}

// Options counts the values available per dimension in the loaded items.
// Selected values are always listed so they can be unchecked.
func Options(items []types.Artwork, filters types.FilterState) []DimensionOptions {
	ret := make([]DimensionOptions, 0, len(types.Dimensions))
	for _, dim := range types.Dimensions {
		counts := map[string]int{}
		for i := range items {
			seen := map[string]struct{}{}
			for _, v := range items[i].Values(dim) {
				v = strings.TrimSpace(v)
				if v == "" {
					continue
				}
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				counts[v]++
			}
		}
		selected := filters.Values(dim)
		for _, s := range selected {
			if _, ok := counts[s]; !ok {
				counts[s] = 0
			}
		}
		values := make([]OptionValue, 0, len(counts))
		for value, count := range counts {
			values = append(values, OptionValue{
				Value:    value,
				Count:    count,
				Selected: slices.Contains(selected, value),
			})
		}
		slices.SortFunc(values, func(a, b OptionValue) int {
			if c := cmp.Compare(b.Count, a.Count); c != 0 {
				return c
			}
			return strings.Compare(a.Value, b.Value)
		})
		ret = append(ret, DimensionOptions{Dimension: dim, Values: values})
	}
	return ret
}
