package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bakkerme/feedwatch/internal/core"
	"github.com/bakkerme/feedwatch/internal/observability/otelx"
)

// CycleState is carried from one cycle to the next by the poll loop.
type CycleState struct {
	// FirstRun stays true until a cycle has had new records to suppress.
	FirstRun bool
	// SkipFirstRun suppresses delivery of the first cycle's new records.
	SkipFirstRun bool
}

func NewCycleState(skipFirstRun bool) *CycleState {
	return &CycleState{FirstRun: true, SkipFirstRun: skipFirstRun}
}

type Runner struct {
	logger *slog.Logger
	tracer trace.Tracer
}

func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger, tracer: otelx.Tracer()}
}

// Run performs one cycle immediately, then one per trigger event until ctx is
// done or the trigger closes its channel. Cycles never overlap.
func (r *Runner) Run(ctx context.Context, pipeline *core.Pipeline, state *CycleState) error {
	if err := validatePipeline(pipeline); err != nil {
		return err
	}
	if pipeline.Trigger == nil {
		return fmt.Errorf("pipeline trigger is required")
	}
	if state == nil {
		state = NewCycleState(false)
	}

	events, err := pipeline.Trigger.Start(ctx)
	if err != nil {
		return fmt.Errorf("start trigger: %w", err)
	}
	defer func() { _ = pipeline.Trigger.Stop() }()

	r.RunCycle(ctx, pipeline, state)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			r.logger.Debug("trigger event", "pipeline", pipeline.Name, "time", event.Timestamp)
			r.RunCycle(ctx, pipeline, state)
		}
	}
}

// RunOnce runs a single cycle with first-run suppression disabled. The
// returned error is the cycle's error, if any.
func (r *Runner) RunOnce(ctx context.Context, pipeline *core.Pipeline) (*core.CycleResult, error) {
	if err := validatePipeline(pipeline); err != nil {
		return nil, err
	}
	result := r.RunCycle(ctx, pipeline, &CycleState{})
	return result, result.Err
}

// RunCycle performs one fetch, dedupe, filter and notify pass. Failures are
// reported in the result; nothing is retried.
func (r *Runner) RunCycle(ctx context.Context, pipeline *core.Pipeline, state *CycleState) *core.CycleResult {
	if state == nil {
		state = &CycleState{}
	}
	result := &core.CycleResult{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	logger := r.logger.With("cycle_id", result.ID, "pipeline", pipeline.Name)
	ctx = core.WithCycleID(ctx, result.ID)
	ctx = core.WithLogger(ctx, logger)

	ctx, span := r.tracer.Start(ctx, "feedwatch.cycle", trace.WithAttributes(
		attribute.String("feedwatch.cycle_id", result.ID),
		attribute.String("feedwatch.pipeline", pipeline.Name),
	))
	defer func() {
		result.CompletedAt = time.Now().UTC()
		span.SetAttributes(
			attribute.Int("feedwatch.batch_size", result.Fetched),
			attribute.Int("feedwatch.new_count", len(result.New)),
			attribute.String("feedwatch.outcome", string(result.Outcome)),
			attribute.Int("feedwatch.delivered", result.Delivery.Delivered),
			attribute.Int("feedwatch.delivery_failed", result.Delivery.Failed),
		)
		if result.Err != nil {
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, string(result.Outcome))
		}
		span.End()
	}()

	records, err := pipeline.Source.Fetch(ctx)
	if err != nil {
		result.Err = err
		switch {
		case ctx.Err() != nil:
			result.Outcome = core.OutcomeCancelled
			logger.Info("cycle cancelled during fetch", "error", err)
		case errors.Is(err, core.ErrParse):
			result.Outcome = core.OutcomeParseFailed
			logger.Error("failed to parse feed", "error", err)
		default:
			result.Outcome = core.OutcomeFetchFailed
			logger.Error("failed to fetch feed", "error", err)
		}
		return result
	}
	result.Fetched = len(records)

	fresh := pipeline.History.WhatsNew(records)
	result.New = fresh

	if len(fresh) == 0 {
		result.Outcome = core.OutcomeNoNewItems
		logger.Info("no new items", "fetched", result.Fetched)
		return result
	}

	if state.FirstRun && state.SkipFirstRun {
		state.FirstRun = false
		result.Outcome = core.OutcomeSkippedFirstRun
		logger.Info("first run, recorded items without notifying", "new", len(fresh))
		return result
	}

	deliver := fresh
	for _, filter := range pipeline.Filters {
		if filter == nil {
			continue
		}
		next, err := filter.Filter(ctx, deliver)
		if err != nil {
			result.Outcome = core.OutcomeFilterFailed
			result.Err = fmt.Errorf("filter %s: %w", filter.Name(), err)
			logger.Error("filter failed, nothing delivered", "filter", filter.Name(), "error", err)
			return result
		}
		deliver = next
	}
	if len(deliver) == 0 {
		result.Outcome = core.OutcomeFiltered
		logger.Info("all new items filtered", "new", len(fresh))
		return result
	}

	logger.Info("new items found", "new", len(fresh), "notifying", len(deliver))
	result.Delivery = pipeline.Output.Deliver(ctx, deliver)
	result.Outcome = core.OutcomeDelivered
	if result.Delivery.Failed > 0 {
		logger.Warn("some notifications failed", "delivered", result.Delivery.Delivered, "failed", result.Delivery.Failed)
	}
	return result
}

func validatePipeline(pipeline *core.Pipeline) error {
	if pipeline == nil {
		return fmt.Errorf("pipeline is required")
	}
	if pipeline.Source == nil {
		return fmt.Errorf("pipeline source is required")
	}
	if pipeline.History == nil {
		return fmt.Errorf("pipeline history is required")
	}
	if pipeline.Output == nil {
		return fmt.Errorf("pipeline output is required")
	}
	return nil
}
