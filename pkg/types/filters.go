package types

import (
	"fmt"
	"slices"
	"strings"
)

type Dimension string

const (
	DimensionStyle    Dimension = "style"
	DimensionCategory Dimension = "category"
	DimensionTheme    Dimension = "theme"
	DimensionArtist   Dimension = "artist"
)

// Dimensions lists every filter dimension in resolution order.
var Dimensions = []Dimension{DimensionStyle, DimensionCategory, DimensionTheme, DimensionArtist}

func ParseDimension(value string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "style", "styles":
		return DimensionStyle, nil
	case "category", "categories":
		return DimensionCategory, nil
	case "theme", "themes":
		return DimensionTheme, nil
	case "artist", "artists":
		return DimensionArtist, nil
	}
	return "", fmt.Errorf("unknown filter dimension %q", value)
}

// FilterState holds the selected display values per dimension. An empty
// slice means no constraint; values are OR-combined within a dimension and
// dimensions are AND-combined.
type FilterState struct {
	Styles     []string `json:"styles" schema:"style,omitempty"`
	Categories []string `json:"categories" schema:"category,omitempty"`
	Themes     []string `json:"themes" schema:"theme,omitempty"`
	Artists    []string `json:"artists" schema:"artist,omitempty"`
}

func (f *FilterState) field(dim Dimension) *[]string {
	switch dim {
	case DimensionStyle:
		return &f.Styles
	case DimensionCategory:
		return &f.Categories
	case DimensionTheme:
		return &f.Themes
	case DimensionArtist:
		return &f.Artists
	}
	return nil
}

// Values returns the selected values of one dimension.
func (f FilterState) Values(dim Dimension) []string {
	if v := f.field(dim); v != nil {
		return *v
	}
	return nil
}

func (f FilterState) IsActive() bool {
	for _, dim := range Dimensions {
		if len(f.Values(dim)) > 0 {
			return true
		}
	}
	return false
}

func (f *FilterState) Set(dim Dimension, values []string) {
	if v := f.field(dim); v != nil {
		*v = cleanValues(values)
	}
}

// Toggle adds the value when missing and removes it otherwise, like a
// checkbox.
func (f *FilterState) Toggle(dim Dimension, value string) {
	v := f.field(dim)
	if v == nil {
		return
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if idx := slices.Index(*v, value); idx >= 0 {
		*v = slices.Delete(slices.Clone(*v), idx, idx+1)
		return
	}
	*v = append(slices.Clone(*v), value)
}

func (f *FilterState) Clear() {
	*f = FilterState{}
}

func (f FilterState) Clone() FilterState {
	return FilterState{
		Styles:     slices.Clone(f.Styles),
		Categories: slices.Clone(f.Categories),
		Themes:     slices.Clone(f.Themes),
		Artists:    slices.Clone(f.Artists),
	}
}

func (f FilterState) Equal(other FilterState) bool {
	for _, dim := range Dimensions {
		if !slices.Equal(f.Values(dim), other.Values(dim)) {
			return false
		}
	}
	return true
}

// Sanitize trims values, drops empty ones and removes duplicates while
// keeping the selection order.
func (f *FilterState) Sanitize() {
	for _, dim := range Dimensions {
		v := f.field(dim)
		*v = cleanValues(*v)
	}
}

func cleanValues(values []string) []string {
	ret := make([]string, 0, len(values))
	for _, value := range values {
		for part := range strings.SplitSeq(value, "||") {
			part = strings.TrimSpace(part)
			if part == "" || slices.Contains(ret, part) {
				continue
			}
			ret = append(ret, part)
		}
	}
	if len(ret) == 0 {
		return nil
	}
	return ret
}
