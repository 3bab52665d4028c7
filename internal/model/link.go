package model

import (
	"net/url"
	"strings"
	"time"
)

// DefaultCategory is assigned to links saved without a category.
const DefaultCategory = "General"

// Link represents a saved URL with metadata.
// Timestamps are milliseconds since the Unix epoch.
type Link struct {
	ID         int64  `json:"id" db:"id"` // 0 = not yet persisted
	Title      string `json:"title" db:"title"`
	URL        string `json:"url" db:"url"`
	CreatedAt  int64  `json:"createdAt" db:"created_at"`
	Category   string `json:"category" db:"category"`
	IsFavorite bool   `json:"isFavorite" db:"is_favorite"`
	ClickCount int    `json:"clickCount" db:"click_count"`
	LastOpened int64  `json:"lastOpened" db:"last_opened"` // 0 = never opened
	Notes      string `json:"notes" db:"notes"`
	FaviconURL string `json:"faviconUrl" db:"favicon_url"`
}

// NewLinkParams holds parameters for creating a new Link.
type NewLinkParams struct {
	Title    string
	URL      string
	Category string
	Notes    string
}

// NewLink creates an unsaved Link with defaults applied.
func NewLink(params NewLinkParams) Link {
	category := strings.TrimSpace(params.Category)
	if category == "" {
		category = DefaultCategory
	}

	return Link{
		Title:      strings.TrimSpace(params.Title),
		URL:        strings.TrimSpace(params.URL),
		CreatedAt:  NowMillis(),
		Category:   category,
		Notes:      params.Notes,
		FaviconURL: FaviconURL(params.URL),
	}
}

// HasValidScheme reports whether rawURL starts with http:// or https://.
func HasValidScheme(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

// FaviconURL returns the conventional favicon location for a website,
// or an empty string if rawURL cannot be parsed.
func FaviconURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/favicon.ico"
}

// NowMillis returns the current time in milliseconds since the epoch.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Time converts a millisecond timestamp to a time.Time. Zero stays zero.
func Time(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
