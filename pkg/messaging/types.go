package messaging

import "time"

type ChangeTopic string

const (
	CatalogChanged ChangeTopic = "catalog_changed"
	Tracking       ChangeTopic = "tracking"
)

// CatalogChange is published by the catalog sync when products or
// collections change. Empty Handles means everything may have changed.
type CatalogChange struct {
	Handles []string  `json:"handles,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	Time    time.Time `json:"time"`
}
