package types

import (
	"net/http"
)

type ListingEvent struct {
	Filters     FilterState `json:"filters"`
	Sort        SortOption  `json:"sort"`
	Source      Source      `json:"source"`
	Delivered   int         `json:"delivered"`
	Visible     int         `json:"visible"`
	HasNextPage bool        `json:"hasNextPage"`
	AutoFetched bool        `json:"auto,omitempty"`
}

type Tracking interface {
	TrackSession(sessionId string, r *http.Request)
	TrackListing(sessionId string, event ListingEvent)
	Close() error
}
