package source

import (
	"context"
	"fmt"

	"github.com/bakkerme/feedwatch/internal/config"
	"github.com/bakkerme/feedwatch/internal/core"
	"github.com/bakkerme/feedwatch/internal/sources/rss"
)

// FeedProcessor downloads and parses a single feed. It reports every usable
// entry on each call; novelty is decided by the history tracker.
type FeedProcessor struct {
	name    string
	config  config.FeedSource
	fetcher rss.Fetcher
	parser  rss.Parser
}

func NewFeedProcessor(cfg *config.FeedSource, fetcher rss.Fetcher, parser rss.Parser) (*FeedProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("feed config is required")
	}
	return &FeedProcessor{
		name:    "feed",
		config:  *cfg,
		fetcher: fetcher,
		parser:  parser,
	}, nil
}

func (p *FeedProcessor) Name() string {
	return p.name
}

func (p *FeedProcessor) Validate() error {
	if p.config.URL == "" {
		return fmt.Errorf("feed url is required")
	}
	if p.fetcher == nil {
		return fmt.Errorf("feed fetcher is required")
	}
	if p.parser == nil {
		return fmt.Errorf("feed parser is required")
	}
	return nil
}

// Fetch returns the feed's records in document order. Download failures wrap
// core.ErrFetch and malformed documents wrap core.ErrParse.
func (p *FeedProcessor) Fetch(ctx context.Context) ([]core.Record, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger := core.LoggerFromContext(ctx)

	payload, err := p.fetcher.Fetch(ctx, p.config.URL, rss.FetchOptions{UserAgent: p.config.UserAgent})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrFetch, err)
	}
	items, err := p.parser.Parse(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrParse, err)
	}

	if p.config.Limit > 0 && len(items) > p.config.Limit {
		items = items[:p.config.Limit]
	}

	records := make([]core.Record, 0, len(items))
	for _, item := range items {
		record, ok := rss.ToRecord(item)
		if !ok {
			logger.Debug("skipping incomplete feed entry", "guid", item.ID, "title", item.Title)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
