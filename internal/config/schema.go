package config

import (
	"fmt"
	"net/mail"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the top-level structure of a feedwatch.yaml file. Every section
// is optional; unset values come from the environment.
type Document struct {
	Name     string        `yaml:"name,omitempty"`
	Feed     FeedSource    `yaml:"feed"`
	Schedule Schedule      `yaml:"schedule"`
	History  HistoryConfig `yaml:"history"`
	Filters  []FilterRule  `yaml:"filters,omitempty"`
	Notify   NotifyConfig  `yaml:"notify"`
}

// FeedSource defines the polled feed
type FeedSource struct {
	URL       string   `yaml:"url"`
	Limit     int      `yaml:"limit,omitempty"`
	UserAgent string   `yaml:"user_agent,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty"`
}

// Schedule defines when cycles run. Cron wins over Interval when both are set.
type Schedule struct {
	Interval     Duration `yaml:"interval,omitempty"`
	Cron         string   `yaml:"cron,omitempty"`
	Timezone     string   `yaml:"timezone,omitempty"`
	SkipFirstRun *bool    `yaml:"skip_first_run,omitempty"`
}

type HistoryConfig struct {
	Capacity int `yaml:"capacity,omitempty"`
}

// FilterRule is an expr-lang expression evaluated against each new record.
type FilterRule struct {
	Name   string `yaml:"name"`
	Rule   string `yaml:"rule"`
	Action string `yaml:"action,omitempty"` // "drop" (default) or "keep"
}

type NotifyConfig struct {
	Telegram *TelegramOutput `yaml:"telegram,omitempty"`
	Email    *EmailOutput    `yaml:"email,omitempty"`
}

// TelegramOutput defines Telegram Bot API delivery. Secrets left empty are
// filled from TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID.
type TelegramOutput struct {
	BotToken string `yaml:"bot_token,omitempty"`
	ChatID   string `yaml:"chat_id,omitempty"`
	APIBase  string `yaml:"api_base,omitempty"`
}

// EmailOutput defines email delivery configuration
type EmailOutput struct {
	To            string `yaml:"to"`
	From          string `yaml:"from,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
	SMTPHost      string `yaml:"smtp_host,omitempty"`
	SMTPPort      int    `yaml:"smtp_port,omitempty"`
	SMTPUser      string `yaml:"smtp_user,omitempty"`
	SMTPPassword  string `yaml:"smtp_password,omitempty"`
	TLSMode       string `yaml:"tls_mode,omitempty"`
}

// Load reads the document at path, or starts from an empty one when path is
// empty, then fills gaps from env and validates the result.
func Load(path string, env EnvConfig) (*Document, error) {
	doc := &Document{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("parse config document: %w", err)
		}
	}
	doc.ApplyEnv(env)
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// ApplyEnv fills every unset document value from env. A Telegram section is
// implied when no output is configured, matching the plain env-only setup.
func (d *Document) ApplyEnv(env EnvConfig) {
	if d.Name == "" {
		d.Name = env.Name
	}
	if d.Feed.URL == "" {
		d.Feed.URL = env.RSS.FeedURL
	}
	if d.Feed.UserAgent == "" {
		d.Feed.UserAgent = env.RSS.UserAgent
	}
	if d.Feed.Timeout == 0 {
		d.Feed.Timeout = Duration(env.RSS.HTTPTimeout)
	}
	if d.Schedule.Interval == 0 && d.Schedule.Cron == "" {
		d.Schedule.Interval = Duration(env.PollInterval)
	}
	if d.Schedule.SkipFirstRun == nil {
		skip := env.SkipFirstRun
		d.Schedule.SkipFirstRun = &skip
	}
	if d.History.Capacity == 0 {
		d.History.Capacity = env.HistoryCapacity
	}

	if d.Notify.Telegram == nil && d.Notify.Email == nil {
		d.Notify.Telegram = &TelegramOutput{}
	}
	if t := d.Notify.Telegram; t != nil {
		if t.BotToken == "" {
			t.BotToken = env.Telegram.BotToken
		}
		if t.ChatID == "" {
			t.ChatID = env.Telegram.ChatID
		}
		if t.APIBase == "" {
			t.APIBase = env.Telegram.APIBase
		}
	}
	if e := d.Notify.Email; e != nil {
		if e.SMTPHost == "" {
			e.SMTPHost = env.SMTP.Host
		}
		if e.SMTPPort == 0 {
			e.SMTPPort = env.SMTP.Port
		}
		if e.SMTPUser == "" {
			e.SMTPUser = env.SMTP.User
		}
		if e.SMTPPassword == "" {
			e.SMTPPassword = env.SMTP.Password
		}
		if e.TLSMode == "" {
			e.TLSMode = env.SMTP.TLSMode
		}
	}
}

// Validate performs validation on the document
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Feed.URL) == "" {
		return fmt.Errorf("feed url is required")
	}
	if d.Feed.Limit < 0 {
		return fmt.Errorf("feed limit must be >= 0")
	}
	if d.Feed.Timeout < 0 {
		return fmt.Errorf("feed timeout must be >= 0")
	}
	if d.Schedule.Cron == "" && d.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule interval or cron is required")
	}
	if d.History.Capacity < 0 {
		return fmt.Errorf("history capacity must be >= 0")
	}

	for i, filter := range d.Filters {
		if filter.Name == "" || filter.Rule == "" {
			return fmt.Errorf("filter %d: rule name and expression are required", i)
		}
		switch filter.Action {
		case "", "drop", "keep":
		default:
			return fmt.Errorf("filter %d: action must be 'drop' or 'keep'", i)
		}
	}

	if d.Notify.Telegram == nil && d.Notify.Email == nil {
		return fmt.Errorf("at least one notify output is required")
	}
	if t := d.Notify.Telegram; t != nil {
		if t.BotToken == "" {
			return fmt.Errorf("notify telegram: bot token is required (TELEGRAM_BOT_TOKEN)")
		}
		if t.ChatID == "" {
			return fmt.Errorf("notify telegram: chat id is required (TELEGRAM_CHAT_ID)")
		}
	}
	if e := d.Notify.Email; e != nil {
		if e.To == "" {
			return fmt.Errorf("notify email: 'to' field is required")
		}
		if _, err := mail.ParseAddress(e.To); err != nil {
			return fmt.Errorf("notify email: invalid to address")
		}
		if e.From != "" { // From is optional, but if provided must be valid
			if _, err := mail.ParseAddress(e.From); err != nil {
				return fmt.Errorf("notify email: invalid from address")
			}
		}
		if e.SMTPHost == "" {
			return fmt.Errorf("notify email: smtp host is required (SMTP_HOST)")
		}
		if e.SMTPPort <= 0 {
			return fmt.Errorf("notify email: smtp port must be positive")
		}
	}
	return nil
}

// SkipFirstRun reports whether the first cycle's records are recorded without
// being delivered.
func (d *Document) SkipFirstRun() bool {
	if d.Schedule.SkipFirstRun == nil {
		return true
	}
	return *d.Schedule.SkipFirstRun
}
