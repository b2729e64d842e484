package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bakkerme/feedwatch/internal/config"
	"github.com/bakkerme/feedwatch/internal/core"
	"github.com/bakkerme/feedwatch/internal/observability/otelx"
	"github.com/bakkerme/feedwatch/internal/runner"
	"github.com/bakkerme/feedwatch/internal/runner/factory"
)

func main() {
	env := config.LoadEnv()

	configPath := flag.String("config", env.ConfigPath, "path to an optional feedwatch YAML document")
	runOnce := flag.Bool("run-once", env.RunOnce, "run a single cycle and exit")
	flag.Parse()

	logger := core.NewLogger(os.Stdout, env.LogLevel)

	doc, err := config.Load(*configPath, env)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	if shutdownTracing != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}

	pipeline, err := factory.NewFromEnvConfig(logger, env).Build(doc)
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}

	r := runner.New(logger)

	if *runOnce {
		result, err := r.RunOnce(ctx, pipeline)
		if err != nil {
			if result != nil {
				logger.Error("run failed", "outcome", result.Outcome, "error", err)
			} else {
				logger.Error("run failed", "error", err)
			}
			stop()
			os.Exit(1)
		}
		logger.Info("run complete", "outcome", result.Outcome, "new", len(result.New), "delivered", result.Delivery.Delivered)
		return
	}

	logger.Info("feedwatch started",
		"feed", doc.Feed.URL,
		"interval", doc.Schedule.Interval.Std(),
		"cron", doc.Schedule.Cron,
		"history_capacity", doc.History.Capacity,
		"skip_first_run", doc.SkipFirstRun(),
	)
	if err := r.Run(ctx, pipeline, runner.NewCycleState(doc.SkipFirstRun())); err != nil {
		log.Fatalf("runner stopped: %v", err)
	}
	logger.Info("feedwatch stopped")
}
