package mock

import (
	"context"

	"github.com/bakkerme/feedwatch/internal/sources/rss"
)

// Fetcher serves canned payloads per feed URL.
type Fetcher struct {
	PayloadByFeed map[string][]byte
	ErrByFeed     map[string]error
	Calls         int
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string, options rss.FetchOptions) ([]byte, error) {
	_ = ctx
	_ = options
	f.Calls++
	if f.ErrByFeed != nil {
		if err, ok := f.ErrByFeed[feedURL]; ok {
			return nil, err
		}
	}
	return f.PayloadByFeed[feedURL], nil
}

// Parser returns Batches in turn, one per call; the last batch repeats.
type Parser struct {
	Batches [][]rss.Item
	Err     error
	calls   int
}

func (p *Parser) Parse(ctx context.Context, payload []byte) ([]rss.Item, error) {
	_ = ctx
	_ = payload
	if p.Err != nil {
		return nil, p.Err
	}
	if len(p.Batches) == 0 {
		return nil, nil
	}
	idx := p.calls
	if idx >= len(p.Batches) {
		idx = len(p.Batches) - 1
	}
	p.calls++
	return p.Batches[idx], nil
}
