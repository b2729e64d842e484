package output

import (
	"context"
	"fmt"

	"github.com/bakkerme/feedwatch/internal/config"
	"github.com/bakkerme/feedwatch/internal/core"
	"github.com/bakkerme/feedwatch/internal/outputs/telegram"
)

// TelegramProcessor posts one chat message per record.
type TelegramProcessor struct {
	name   string
	config config.TelegramOutput
	sender telegram.Sender
}

func NewTelegramProcessor(cfg *config.TelegramOutput, sender telegram.Sender) (*TelegramProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram config is required")
	}
	return &TelegramProcessor{
		name:   "telegram",
		config: *cfg,
		sender: sender,
	}, nil
}

func (p *TelegramProcessor) Name() string {
	return p.name
}

func (p *TelegramProcessor) Validate() error {
	if p.sender == nil {
		return fmt.Errorf("telegram sender is required")
	}
	if p.config.ChatID == "" {
		return fmt.Errorf("telegram chat id is required")
	}
	return nil
}

func (p *TelegramProcessor) Notify(ctx context.Context, record core.Record) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("telegram processor validation failed: %w", err)
	}
	return p.sender.Send(ctx, telegram.Message{
		ChatID: p.config.ChatID,
		Text:   record.Message(),
	})
}
