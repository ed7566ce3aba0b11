package model

import "time"

// Link is the persisted record owning a short code and its target URL.
// ShortCode is the alternate key; it is unique across all non-deleted links
// and never reassigned once taken.
type Link struct {
	ID            string    `json:"id"`
	ShortCode     string    `json:"shortCode"`
	OriginalURL   string    `json:"originalUrl"`
	CustomAlias   string    `json:"customAlias,omitempty"`
	Description   string    `json:"description,omitempty"`
	ClickCount    int64     `json:"clickCount"`
	ExpiresAt     time.Time `json:"expiresAt,omitempty"`
	IsActive      bool      `json:"isActive"`
	LastClickedAt time.Time `json:"lastClickedAt,omitempty"`
	QRGenerated   bool      `json:"qrGenerated,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IsExpired reports whether the link's expiration has passed.
// A zero ExpiresAt means the link never expires.
func (l *Link) IsExpired() bool {
	return !l.ExpiresAt.IsZero() && time.Now().After(l.ExpiresAt)
}

// ShortURL builds the public short URL for this link. Computed at read
// time, never stored.
func (l *Link) ShortURL(baseURL string) string {
	return baseURL + "/" + l.ShortCode
}
