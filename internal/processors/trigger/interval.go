package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bakkerme/feedwatch/internal/core"
	"github.com/robfig/cron/v3"
)

// IntervalProcessor fires on a fixed interval ("@every 10m") or on a cron
// expression. Events are buffered one deep and dropped while the previous one
// is still unconsumed, so a slow cycle never queues up a backlog.
type IntervalProcessor struct {
	name     string
	interval time.Duration
	schedule string
	timezone string

	mu     sync.Mutex
	cron   *cron.Cron
	events chan core.TriggerEvent
	stop   sync.Once
}

func NewIntervalProcessor(interval time.Duration, schedule, timezone string) *IntervalProcessor {
	return &IntervalProcessor{
		name:     "interval",
		interval: interval,
		schedule: schedule,
		timezone: timezone,
	}
}

func (p *IntervalProcessor) Name() string {
	return p.name
}

// Spec is the cron spec the trigger runs on.
func (p *IntervalProcessor) Spec() string {
	if p.schedule != "" {
		return p.schedule
	}
	return fmt.Sprintf("@every %s", p.interval)
}

func (p *IntervalProcessor) Validate() error {
	if p.schedule == "" && p.interval <= 0 {
		return fmt.Errorf("trigger interval or cron schedule is required")
	}
	if p.schedule == "" && p.interval < time.Second {
		return fmt.Errorf("trigger interval must be at least 1s")
	}
	if _, err := cron.ParseStandard(p.Spec()); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", p.Spec(), err)
	}
	if p.timezone != "" {
		if _, err := time.LoadLocation(p.timezone); err != nil {
			return fmt.Errorf("invalid timezone: %w", err)
		}
	}
	return nil
}

func (p *IntervalProcessor) Start(ctx context.Context) (<-chan core.TriggerEvent, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	location := time.UTC
	if p.timezone != "" {
		tz, err := time.LoadLocation(p.timezone)
		if err != nil {
			return nil, err
		}
		location = tz
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron != nil {
		return nil, fmt.Errorf("trigger %s already started", p.name)
	}

	events := make(chan core.TriggerEvent, 1)
	c := cron.New(cron.WithLocation(location))
	_, err := c.AddFunc(p.Spec(), func() {
		select {
		case events <- core.TriggerEvent{Timestamp: time.Now().UTC()}:
		default:
			core.LoggerFromContext(ctx).Debug("trigger skipped, previous cycle still pending", "trigger", p.name)
		}
	})
	if err != nil {
		return nil, err
	}
	p.cron = c
	p.events = events
	c.Start()

	go func() {
		<-ctx.Done()
		_ = p.Stop()
	}()

	return events, nil
}

// Stop halts the schedule, waits for a firing job to return and closes the
// event channel. It is safe to call more than once.
func (p *IntervalProcessor) Stop() error {
	p.mu.Lock()
	c, events := p.cron, p.events
	p.mu.Unlock()
	if c == nil {
		return nil
	}
	p.stop.Do(func() {
		<-c.Stop().Done()
		close(events)
	})
	return nil
}
