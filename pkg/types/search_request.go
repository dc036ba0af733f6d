package types

import (
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
)

const DefaultPageSize = 24
const MaxPageSize = 100

type ListingRequest struct {
	FilterState
	Sort     string `json:"sort" schema:"sort,default:default"`
	PageSize int    `json:"pageSize" schema:"size"`
	Token    string `json:"token" schema:"token"`
}

var decoder = schema.NewDecoder()
var encoder = schema.NewEncoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func clamp[T int | float64](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func (s *ListingRequest) SortOption() SortOption {
	return ParseSortOption(s.Sort)
}

func (s *ListingRequest) Sanitize() {
	if s.PageSize == 0 {
		s.PageSize = DefaultPageSize
	}
	s.PageSize = clamp(s.PageSize, 1, MaxPageSize)
	s.Sort = string(ParseSortOption(s.Sort))
	s.FilterState.Sanitize()
}

func GetListingRequest(r *http.Request) (*ListingRequest, error) {
	sr := &ListingRequest{
		Sort:     string(SortDefault),
		PageSize: DefaultPageSize,
	}
	err := decoder.Decode(sr, r.URL.Query())
	sr.Sanitize()
	return sr, err
}

// FilterStateFromQuery reads the filter selection persisted in the query
// string. Both repeated keys and `a||b` values are accepted.
func FilterStateFromQuery(query url.Values) (FilterState, error) {
	var f FilterState
	err := decoder.Decode(&f, query)
	f.Sanitize()
	return f, err
}

// ToQuery encodes the selection so a listing url can be shared.
func (f FilterState) ToQuery() url.Values {
	ret := url.Values{}
	clean := f.Clone()
	clean.Sanitize()
	if err := encoder.Encode(&clean, ret); err != nil {
		return url.Values{}
	}
	return ret
}
