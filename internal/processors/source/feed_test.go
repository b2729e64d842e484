package source

import (
	"context"
	"errors"
	"testing"

	"github.com/bakkerme/feedwatch/internal/config"
	"github.com/bakkerme/feedwatch/internal/core"
	"github.com/bakkerme/feedwatch/internal/sources/rss"
	"github.com/bakkerme/feedwatch/internal/sources/rss/mock"
)

const feedURL = "https://example.com/feed.xml"

func newProcessor(t *testing.T, cfg config.FeedSource, fetcher rss.Fetcher, parser rss.Parser) *FeedProcessor {
	t.Helper()
	processor, err := NewFeedProcessor(&cfg, fetcher, parser)
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}
	return processor
}

func TestFeedProcessorConvertsEntries(t *testing.T) {
	fetcher := &mock.Fetcher{PayloadByFeed: map[string][]byte{feedURL: []byte("<rss/>")}}
	parser := &mock.Parser{Batches: [][]rss.Item{{
		{ID: "a", Title: "First", Description: "<p>Hello</p>", Link: "https://example.com/a"},
		{ID: "", Title: "No guid", Description: "x"},
		{ID: "c", Title: "No description"},
		{ID: "d", Title: "Second", Description: "World"},
	}}}

	processor := newProcessor(t, config.FeedSource{URL: feedURL}, fetcher, parser)
	records, err := processor.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Identity != "a" || records[0].Body != "Hello" || records[0].Link != "https://example.com/a" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Identity != "d" {
		t.Errorf("expected feed order to be preserved, got %+v", records[1])
	}
}

func TestFeedProcessorDoesNotDeduplicate(t *testing.T) {
	fetcher := &mock.Fetcher{PayloadByFeed: map[string][]byte{feedURL: []byte("<rss/>")}}
	parser := &mock.Parser{Batches: [][]rss.Item{{
		{ID: "a", Title: "One", Description: "x"},
		{ID: "a", Title: "One", Description: "x"},
	}}}

	processor := newProcessor(t, config.FeedSource{URL: feedURL}, fetcher, parser)
	for i := 0; i < 2; i++ {
		records, err := processor.Fetch(context.Background())
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("call %d: expected both duplicates to be reported, got %d", i, len(records))
		}
	}
}

func TestFeedProcessorAppliesLimit(t *testing.T) {
	fetcher := &mock.Fetcher{PayloadByFeed: map[string][]byte{feedURL: []byte("<rss/>")}}
	parser := &mock.Parser{Batches: [][]rss.Item{{
		{ID: "a", Title: "A", Description: "x"},
		{ID: "b", Title: "B", Description: "x"},
		{ID: "c", Title: "C", Description: "x"},
	}}}

	processor := newProcessor(t, config.FeedSource{URL: feedURL, Limit: 2}, fetcher, parser)
	records, err := processor.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(records) != 2 || records[1].Identity != "b" {
		t.Fatalf("expected the first two records, got %+v", records)
	}
}

func TestFeedProcessorClassifiesErrors(t *testing.T) {
	fetchErr := errors.New("connection refused")
	fetcher := &mock.Fetcher{ErrByFeed: map[string]error{feedURL: fetchErr}}
	processor := newProcessor(t, config.FeedSource{URL: feedURL}, fetcher, &mock.Parser{})

	_, err := processor.Fetch(context.Background())
	if !errors.Is(err, core.ErrFetch) || !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if errors.Is(err, core.ErrParse) {
		t.Fatalf("fetch error must not be classified as parse error")
	}

	fetcher = &mock.Fetcher{PayloadByFeed: map[string][]byte{feedURL: []byte("garbage")}}
	processor = newProcessor(t, config.FeedSource{URL: feedURL}, fetcher, &mock.Parser{Err: errors.New("not a feed")})

	_, err = processor.Fetch(context.Background())
	if !errors.Is(err, core.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestFeedProcessorValidate(t *testing.T) {
	processor := newProcessor(t, config.FeedSource{}, &mock.Fetcher{}, &mock.Parser{})
	if err := processor.Validate(); err == nil {
		t.Fatalf("expected error for missing url")
	}
	processor = newProcessor(t, config.FeedSource{URL: feedURL}, nil, &mock.Parser{})
	if err := processor.Validate(); err == nil {
		t.Fatalf("expected error for missing fetcher")
	}
}
