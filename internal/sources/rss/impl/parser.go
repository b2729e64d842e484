package impl

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/bakkerme/feedwatch/internal/sources/rss"
	"github.com/mmcdole/gofeed"
)

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{parser: gofeed.NewParser()}
}

func (p *Parser) Parse(ctx context.Context, payload []byte) ([]rss.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	feed, err := p.parser.Parse(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]rss.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}
		item := rss.Item{
			ID:          entry.GUID,
			Title:       entry.Title,
			Link:        entry.Link,
			Description: entry.Description,
			Content:     entry.Content,
		}
		if entry.Author != nil {
			item.Author = entry.Author.Name
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = *entry.UpdatedParsed
		} else {
			item.PublishedAt = time.Now().UTC()
		}
		items = append(items, item)
	}
	return items, nil
}
