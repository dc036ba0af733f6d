package sorting

import (
	"slices"
	"strings"

	"github.com/matst80/slask-gallery/pkg/types"
	"github.com/shopspring/decimal"
)

// ParsePrice returns zero for prices that cannot be parsed.
func ParsePrice(value string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero
	}
	return d
}

type pricedArtwork struct {
	price decimal.Decimal
	item  types.Artwork
}

func sortByPrice(items []types.Artwork, reversed bool) []types.Artwork {
	priced := make([]pricedArtwork, len(items))
	for i, item := range items {
		priced[i] = pricedArtwork{price: ParsePrice(item.Price), item: item}
	}
	slices.SortStableFunc(priced, func(a, b pricedArtwork) int {
		if reversed {
			return b.price.Cmp(a.price)
		}
		return a.price.Cmp(b.price)
	})
	ret := make([]types.Artwork, len(priced))
	for i, p := range priced {
		ret[i] = p.item
	}
	return ret
}

func sortByTitle(items []types.Artwork, reversed bool) []types.Artwork {
	ret := slices.Clone(items)
	slices.SortStableFunc(ret, func(a, b types.Artwork) int {
		if reversed {
			return strings.Compare(b.Title, a.Title)
		}
		return strings.Compare(a.Title, b.Title)
	})
	return ret
}

// SortUpstream orders a source the way a catalog backend does for a
// requested sort key, title-asc included.
func SortUpstream(items []types.Artwork, opt types.SortOption) []types.Artwork {
	if opt == types.SortTitleAsc {
		return sortByTitle(items, false)
	}
	return Sort(items, opt)
}

// Sort returns a sorted copy. Default and title-asc keep the delivered
// order, all other options are stable.
func Sort(items []types.Artwork, opt types.SortOption) []types.Artwork {
	switch opt {
	case types.SortTitleDesc:
		return sortByTitle(items, true)
	case types.SortPriceAsc:
		return sortByPrice(items, false)
	case types.SortPriceDesc:
		return sortByPrice(items, true)
	}
	return slices.Clone(items)
}
