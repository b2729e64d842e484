package output

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/bakkerme/feedwatch/internal/config"
	"github.com/bakkerme/feedwatch/internal/core"
	"github.com/bakkerme/feedwatch/internal/outputs/email"
)

const defaultSubjectPrefix = "[feedwatch] "

// EmailProcessor sends one HTML email per record.
type EmailProcessor struct {
	name     string
	config   config.EmailOutput
	sender   email.Sender
	markdown goldmark.Markdown
}

func NewEmailProcessor(cfg *config.EmailOutput, sender email.Sender) (*EmailProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("email config is required")
	}
	return &EmailProcessor{
		name:   "email",
		config: *cfg,
		sender: sender,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}, nil
}

func (p *EmailProcessor) Name() string {
	return p.name
}

func (p *EmailProcessor) Validate() error {
	if p.sender == nil {
		return fmt.Errorf("email sender is required")
	}
	if p.config.To == "" {
		return fmt.Errorf("email 'to' address is required")
	}
	return nil
}

func (p *EmailProcessor) Notify(ctx context.Context, record core.Record) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("email processor validation failed: %w", err)
	}
	body, err := p.renderBody(record)
	if err != nil {
		return fmt.Errorf("render email body failed: %w", err)
	}
	return p.sender.Send(ctx, email.Message{
		From:    p.config.From,
		To:      p.config.To,
		Subject: p.subject(record),
		Body:    body,
	})
}

func (p *EmailProcessor) subject(record core.Record) string {
	prefix := p.config.SubjectPrefix
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	return prefix + record.Title
}

// renderBody renders the notification text as markdown. The renderer drops
// raw HTML blocks and escapes literal '<' and '&' in text.
func (p *EmailProcessor) renderBody(record core.Record) (string, error) {
	text := record.Message()
	if record.Link != "" {
		text += "\n\n" + record.Link
	}
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
