package model

import "time"

// ClickEvent is one immutable record of a successful resolution. Events are
// append-only; the per-link event log is the source of truth for click
// counts, the Link's cached counter is derived from it.
type ClickEvent struct {
	LinkID    string    `json:"linkId"`
	ShortCode string    `json:"shortCode"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent,omitempty"`
	Referrer  string    `json:"referrer"`
	Country   string    `json:"country"`
	Device    string    `json:"device"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	ClickedAt time.Time `json:"clickedAt"`
}
