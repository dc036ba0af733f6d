package types

import "strings"

type Source string

const (
	SourceCurated Source = "curated"
	SourceCatalog Source = "catalog"
)

func (s Source) Valid() bool {
	return s == SourceCurated || s == SourceCatalog
}

// Artwork is the normalized listing item. Values are never mutated after
// normalization, slices included.
type Artwork struct {
	Id         string   `json:"id"`
	Gid        string   `json:"gid,omitempty"`
	Title      string   `json:"title"`
	Handle     string   `json:"handle,omitempty"`
	ArtistName string   `json:"artist,omitempty"`
	ArtistSlug string   `json:"artistSlug,omitempty"`
	ImageUrl   string   `json:"img,omitempty"`
	Price      string   `json:"price,omitempty"`
	Currency   string   `json:"currency,omitempty"`
	Dimensions string   `json:"dimensions,omitempty"`
	Styles     []string `json:"styles,omitempty"`
	StyleTags  []string `json:"styleTags,omitempty"`
	Category   string   `json:"category,omitempty"`
	Themes     []string `json:"themes,omitempty"`
	ThemeTags  []string `json:"themeTags,omitempty"`
	Source     Source   `json:"source"`
}

// DedupKey returns the cross source identity. Items without one are never
// deduplicated.
func (a *Artwork) DedupKey() (string, bool) {
	key := strings.TrimSpace(a.Gid)
	return key, key != ""
}

// Values returns the filterable values of the item for one dimension,
// auxiliary tag lists included.
func (a *Artwork) Values(dim Dimension) []string {
	switch dim {
	case DimensionStyle:
		return concat(a.Styles, a.StyleTags)
	case DimensionTheme:
		return concat(a.Themes, a.ThemeTags)
	case DimensionCategory:
		if a.Category == "" {
			return nil
		}
		return []string{a.Category}
	case DimensionArtist:
		if a.ArtistName == "" {
			return nil
		}
		return []string{a.ArtistName}
	}
	return nil
}

func concat(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	ret := make([]string, 0, len(a)+len(b))
	ret = append(ret, a...)
	return append(ret, b...)
}

// Dedup keeps the first occurrence of every dedup key and preserves order.
func Dedup(items []Artwork) []Artwork {
	seen := make(map[string]struct{}, len(items))
	ret := make([]Artwork, 0, len(items))
	for _, item := range items {
		key, ok := item.DedupKey()
		if ok {
			if _, found := seen[key]; found {
				continue
			}
			seen[key] = struct{}{}
		}
		ret = append(ret, item)
	}
	return ret
}

// SeenSet tracks delivered dedup keys during one fetch.
type SeenSet map[string]struct{}

// Mark records the item and reports whether it should be delivered.
func (s SeenSet) Mark(item *Artwork) bool {
	key, ok := item.DedupKey()
	if !ok {
		return true
	}
	if _, found := s[key]; found {
		return false
	}
	s[key] = struct{}{}
	return true
}
