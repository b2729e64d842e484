package rss

import (
	"context"
	"time"

	"github.com/bakkerme/feedwatch/internal/core"
)

// DefaultFeedURL lists Hacker News stories that reached 500 points.
const DefaultFeedURL = "https://hnrss.org/newest?points=500"

// FetchOptions controls how a feed is downloaded.
type FetchOptions struct {
	UserAgent string
}

// Item represents a single RSS, Atom or JSON Feed entry.
type Item struct {
	ID          string
	Title       string
	Link        string
	Description string
	Content     string
	Author      string
	PublishedAt time.Time
}

// Fetcher downloads a raw feed payload.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, options FetchOptions) ([]byte, error)
}

// Parser turns a raw payload into entries, in feed order.
type Parser interface {
	Parse(ctx context.Context, payload []byte) ([]Item, error)
}

// ToRecord converts an entry into a Record. Entries missing a title, a
// description or a GUID are rejected; present but blank values are kept.
func ToRecord(item Item) (core.Record, bool) {
	if item.Title == "" || item.Description == "" || item.ID == "" {
		return core.Record{}, false
	}
	record := core.NewRecord(item.ID, item.Title, item.Description)
	record.Link = item.Link
	return record, true
}
