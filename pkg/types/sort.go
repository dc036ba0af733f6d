package types

import "strings"

type SortOption string

const (
	SortDefault   SortOption = "default"
	SortTitleAsc  SortOption = "title-asc"
	SortTitleDesc SortOption = "title-desc"
	SortPriceAsc  SortOption = "price-asc"
	SortPriceDesc SortOption = "price-desc"
)

var SortOptions = []SortOption{SortDefault, SortTitleAsc, SortTitleDesc, SortPriceAsc, SortPriceDesc}

// ParseSortOption falls back to SortDefault for unknown values.
func ParseSortOption(value string) SortOption {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, opt := range SortOptions {
		if string(opt) == value {
			return opt
		}
	}
	return SortDefault
}

// IsInputOrder reports whether the option keeps the delivered order.
func (s SortOption) IsInputOrder() bool {
	return s == SortDefault || s == SortTitleAsc || s == ""
}
