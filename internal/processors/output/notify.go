package output

import (
	"context"
	"fmt"

	"github.com/bakkerme/feedwatch/internal/core"
)

// NotifyProcessor fans each record out to every notifier, one record at a
// time in batch order. Delivery is best-effort: failures are logged and
// counted, never returned.
type NotifyProcessor struct {
	name      string
	notifiers []core.Notifier
}

func NewNotifyProcessor(notifiers ...core.Notifier) *NotifyProcessor {
	return &NotifyProcessor{
		name:      "notify",
		notifiers: notifiers,
	}
}

func (p *NotifyProcessor) Name() string {
	return p.name
}

func (p *NotifyProcessor) Validate() error {
	if len(p.notifiers) == 0 {
		return fmt.Errorf("at least one notifier is required")
	}
	for _, n := range p.notifiers {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("notifier %s: %w", n.Name(), err)
		}
	}
	return nil
}

func (p *NotifyProcessor) Deliver(ctx context.Context, records []core.Record) core.DeliveryReport {
	logger := core.LoggerFromContext(ctx)
	report := core.DeliveryReport{}

	for _, record := range records {
		for _, n := range p.notifiers {
			if ctx.Err() != nil {
				report.Failed++
				continue
			}
			if err := n.Notify(ctx, record); err != nil {
				report.Failed++
				logger.Error("notification failed", "notifier", n.Name(), "identity", record.Identity, "error", err)
				continue
			}
			report.Delivered++
			logger.Debug("notification sent", "notifier", n.Name(), "identity", record.Identity)
		}
	}
	return report
}
