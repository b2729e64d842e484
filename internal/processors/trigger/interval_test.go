package trigger

import (
	"context"
	"testing"
	"time"
)

func TestIntervalProcessorSpec(t *testing.T) {
	if got := NewIntervalProcessor(10*time.Minute, "", "").Spec(); got != "@every 10m0s" {
		t.Fatalf("unexpected spec %q", got)
	}
	if got := NewIntervalProcessor(10*time.Minute, "*/5 * * * *", "").Spec(); got != "*/5 * * * *" {
		t.Fatalf("expected cron schedule to win, got %q", got)
	}
}

func TestIntervalProcessorValidate(t *testing.T) {
	cases := []struct {
		name    string
		p       *IntervalProcessor
		wantErr bool
	}{
		{"default interval", NewIntervalProcessor(600*time.Second, "", ""), false},
		{"cron", NewIntervalProcessor(0, "0 * * * *", "Europe/Amsterdam"), false},
		{"nothing", NewIntervalProcessor(0, "", ""), true},
		{"sub-second", NewIntervalProcessor(10*time.Millisecond, "", ""), true},
		{"bad cron", NewIntervalProcessor(0, "every tuesday", ""), true},
		{"bad timezone", NewIntervalProcessor(time.Minute, "", "Mars/Olympus"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestIntervalProcessorFiresAndClosesOnCancel(t *testing.T) {
	p := NewIntervalProcessor(time.Second, "", "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := p.Start(ctx)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Timestamp.IsZero() {
			t.Fatalf("expected event timestamp")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("expected a trigger event within 3s")
	}

	cancel()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				if err := p.Stop(); err != nil {
					t.Fatalf("second stop failed: %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatalf("expected event channel to close after cancel")
		}
	}
}

func TestIntervalProcessorRejectsDoubleStart(t *testing.T) {
	p := NewIntervalProcessor(time.Minute, "", "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := p.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := p.Start(ctx); err == nil {
		t.Fatalf("expected second start to fail")
	}
	_ = p.Stop()
}
