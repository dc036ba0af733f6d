package types

import "fmt"

// MakeMockArtwork builds a catalog artwork with a gid derived from the id.
func MakeMockArtwork(id string) Artwork {
	return Artwork{
		Id:     id,
		Gid:    fmt.Sprintf("gid://shop/Product/%s", id),
		Title:  fmt.Sprintf("Artwork %s", id),
		Price:  "100.00",
		Source: SourceCatalog,
	}
}

func MakeMockArtworks(prefix string, n int) []Artwork {
	ret := make([]Artwork, 0, n)
	for i := range n {
		ret = append(ret, MakeMockArtwork(fmt.Sprintf("%s%d", prefix, i)))
	}
	return ret
}
