package types

import (
	"encoding/base64"
	"errors"
	"fmt"
	"slices"

	"github.com/bytedance/sonic"
)

var ErrInvalidToken = errors.New("invalid page token")

type CursorState uint8

const (
	CursorNotStarted CursorState = iota
	CursorActive
	CursorExhausted
)

// CursorMap holds the next cursor per collection handle. A present value
// means more items are available, a nil value means the collection is
// exhausted and a missing key means it has never been queried.
type CursorMap map[string]*string

func (c CursorMap) State(handle string) CursorState {
	v, ok := c[handle]
	if !ok {
		return CursorNotStarted
	}
	if v == nil {
		return CursorExhausted
	}
	return CursorActive
}

// After returns the cursor to resume from, empty when not started.
func (c CursorMap) After(handle string) string {
	if v, ok := c[handle]; ok && v != nil {
		return *v
	}
	return ""
}

func (c CursorMap) SetNext(handle string, hasNext bool, endCursor string) {
	if !hasNext {
		c[handle] = nil
		return
	}
	cursor := endCursor
	c[handle] = &cursor
}

func (c CursorMap) Exhaust(handle string) {
	c[handle] = nil
}

func (c CursorMap) Clone() CursorMap {
	ret := make(CursorMap, len(c))
	for k, v := range c {
		if v == nil {
			ret[k] = nil
			continue
		}
		cursor := *v
		ret[k] = &cursor
	}
	return ret
}

type Buffers map[string][]Artwork

func (b Buffers) Clone() Buffers {
	ret := make(Buffers, len(b))
	for k, v := range b {
		if len(v) > 0 {
			ret[k] = slices.Clone(v)
		}
	}
	return ret
}

// PageParam is the continuation token. It carries everything needed to
// fetch the next page.
type PageParam struct {
	Source  Source    `json:"source"`
	Cursor  string    `json:"cursor,omitempty"`
	Handles []string  `json:"handles,omitempty"`
	Cursors CursorMap `json:"cursors,omitempty"`
	Buffers Buffers   `json:"buffers,omitempty"`
	// Next is the round-robin position to continue from.
	Next int `json:"next,omitempty"`
}

func InitialPageParam() PageParam {
	return PageParam{Source: SourceCurated}
}

// IsMultiCollection reports whether the page is served by merging
// sub-collections.
func (p *PageParam) IsMultiCollection() bool {
	return p.Source == SourceCatalog && len(p.Handles) > 0
}

func (p PageParam) EncodeToken() (string, error) {
	data, err := sonic.ConfigStd.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func DecodeToken(token string) (PageParam, error) {
	var p PageParam
	if token == "" {
		return InitialPageParam(), nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err = sonic.ConfigStd.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !p.Source.Valid() {
		return p, fmt.Errorf("%w: unknown source %q", ErrInvalidToken, p.Source)
	}
	for handle := range p.Cursors {
		if !slices.Contains(p.Handles, handle) {
			return p, fmt.Errorf("%w: cursor for unknown handle %q", ErrInvalidToken, handle)
		}
	}
	return p, nil
}

// PageResult is the output of one page fetch.
type PageResult struct {
	Source      Source    `json:"source"`
	Items       []Artwork `json:"items"`
	HasNextPage bool      `json:"hasNextPage"`
	EndCursor   string    `json:"endCursor,omitempty"`
	Handles     []string  `json:"handles,omitempty"`
	Cursors     CursorMap `json:"cursors,omitempty"`
	Buffers     Buffers   `json:"buffers,omitempty"`
	Next        int       `json:"next,omitempty"`
}

// NextParam builds the token for the following page. A curated page always
// hands over to the catalog.
func (r *PageResult) NextParam() (PageParam, bool) {
	if !r.HasNextPage {
		return PageParam{}, false
	}
	switch r.Source {
	case SourceCurated:
		return PageParam{Source: SourceCatalog}, true
	case SourceCatalog:
		if len(r.Handles) > 0 {
			return PageParam{
				Source:  SourceCatalog,
				Handles: slices.Clone(r.Handles),
				Cursors: r.Cursors.Clone(),
				Buffers: r.Buffers.Clone(),
				Next:    r.Next,
			}, true
		}
		return PageParam{Source: SourceCatalog, Cursor: r.EndCursor}, true
	}
	return PageParam{}, false
}
