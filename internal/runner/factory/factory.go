package factory

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bakkerme/feedwatch/internal/config"
	"github.com/bakkerme/feedwatch/internal/core"
	"github.com/bakkerme/feedwatch/internal/history"
	"github.com/bakkerme/feedwatch/internal/outputs/email"
	"github.com/bakkerme/feedwatch/internal/outputs/email/smtp"
	"github.com/bakkerme/feedwatch/internal/outputs/telegram"
	"github.com/bakkerme/feedwatch/internal/outputs/telegram/botapi"
	"github.com/bakkerme/feedwatch/internal/processors/filter"
	"github.com/bakkerme/feedwatch/internal/processors/output"
	"github.com/bakkerme/feedwatch/internal/processors/source"
	"github.com/bakkerme/feedwatch/internal/processors/trigger"
	"github.com/bakkerme/feedwatch/internal/sources/rss"
	rssimpl "github.com/bakkerme/feedwatch/internal/sources/rss/impl"
)

// Factory builds processors from a config document. Collaborators left nil
// are constructed from the document and env defaults; tests inject mocks.
type Factory struct {
	Logger          *slog.Logger
	SMTPDefaults    config.SMTPEnvConfig
	TelegramTimeout time.Duration
	RSSFetcher      rss.Fetcher
	RSSParser       rss.Parser
	TelegramSender  telegram.Sender
	EmailSender     email.Sender
}

func NewFromEnvConfig(logger *slog.Logger, env config.EnvConfig) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		Logger:          logger,
		SMTPDefaults:    env.SMTP,
		TelegramTimeout: env.Telegram.HTTPTimeout,
		RSSParser:       rssimpl.NewParser(),
		// RSSFetcher, TelegramSender and EmailSender stay nil so they are built
		// from the merged document, letting per-document timeouts and
		// credentials take effect.
	}
}

// Build assembles the pipeline described by doc.
func (f *Factory) Build(doc *config.Document) (*core.Pipeline, error) {
	if doc == nil {
		return nil, fmt.Errorf("config document is required")
	}

	triggerProcessor, err := f.NewTrigger(&doc.Schedule)
	if err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}
	sourceProcessor, err := f.NewFeedSource(&doc.Feed)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}

	filters := make([]core.FilterProcessor, 0, len(doc.Filters))
	for i := range doc.Filters {
		processor, err := f.NewFilter(&doc.Filters[i])
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		filters = append(filters, processor)
	}

	var notifiers []core.Notifier
	if doc.Notify.Telegram != nil {
		notifier, err := f.NewTelegramOutput(doc.Notify.Telegram)
		if err != nil {
			return nil, fmt.Errorf("notify telegram: %w", err)
		}
		notifiers = append(notifiers, notifier)
	}
	if doc.Notify.Email != nil {
		notifier, err := f.NewEmailOutput(doc.Notify.Email)
		if err != nil {
			return nil, fmt.Errorf("notify email: %w", err)
		}
		notifiers = append(notifiers, notifier)
	}
	notify := output.NewNotifyProcessor(notifiers...)
	if err := notify.Validate(); err != nil {
		return nil, err
	}

	return &core.Pipeline{
		Name:    doc.Name,
		Trigger: triggerProcessor,
		Source:  sourceProcessor,
		History: history.New(doc.History.Capacity),
		Filters: filters,
		Output:  notify,
	}, nil
}

func (f *Factory) NewTrigger(cfg *config.Schedule) (core.TriggerProcessor, error) {
	processor := trigger.NewIntervalProcessor(cfg.Interval.Std(), cfg.Cron, cfg.Timezone)
	if err := processor.Validate(); err != nil {
		return nil, err
	}
	return processor, nil
}

func (f *Factory) NewFeedSource(cfg *config.FeedSource) (core.SourceProcessor, error) {
	fetcher := f.RSSFetcher
	if fetcher == nil {
		fetcher = rssimpl.NewFetcher(cfg.Timeout.Std(), cfg.UserAgent)
	}
	parser := f.RSSParser
	if parser == nil {
		parser = rssimpl.NewParser()
	}
	processor, err := source.NewFeedProcessor(cfg, fetcher, parser)
	if err != nil {
		return nil, err
	}
	if err := processor.Validate(); err != nil {
		return nil, err
	}
	return processor, nil
}

func (f *Factory) NewFilter(cfg *config.FilterRule) (core.FilterProcessor, error) {
	processor, err := filter.NewRuleProcessor(cfg)
	if err != nil {
		return nil, err
	}
	if err := processor.Validate(); err != nil {
		return nil, err
	}
	return processor, nil
}

func (f *Factory) NewTelegramOutput(cfg *config.TelegramOutput) (core.Notifier, error) {
	sender := f.TelegramSender
	if sender == nil {
		sender = botapi.NewClient(cfg.BotToken, cfg.APIBase, f.TelegramTimeout)
	}
	processor, err := output.NewTelegramProcessor(cfg, sender)
	if err != nil {
		return nil, err
	}
	return processor, nil
}

func (f *Factory) NewEmailOutput(cfg *config.EmailOutput) (core.Notifier, error) {
	sender := f.EmailSender
	if sender == nil {
		if _, err := smtp.ParseTLSMode(cfg.TLSMode); err != nil {
			return nil, err
		}
		sender = smtp.NewSender(smtp.Options{
			Host:               cfg.SMTPHost,
			Port:               cfg.SMTPPort,
			Username:           cfg.SMTPUser,
			Password:           cfg.SMTPPassword,
			TLSMode:            cfg.TLSMode,
			InsecureSkipVerify: f.SMTPDefaults.InsecureSkipVerify,
		})
	}
	processor, err := output.NewEmailProcessor(cfg, sender)
	if err != nil {
		return nil, err
	}
	return processor, nil
}
