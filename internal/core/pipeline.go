package core

import (
	"errors"
	"time"
)

// ErrFetch and ErrParse classify source failures so the poll loop can tell a
// network problem from a malformed payload.
var (
	ErrFetch = errors.New("fetch feed")
	ErrParse = errors.New("parse feed")
)

// History decides which records of a batch have not been seen before.
type History interface {
	WhatsNew(batch []Record) []Record
}

// Pipeline is the assembled set of processors one poller drives.
type Pipeline struct {
	Name    string
	Trigger TriggerProcessor
	Source  SourceProcessor
	History History
	Filters []FilterProcessor
	Output  OutputProcessor
}

// Outcome is how a single poll cycle ended.
type Outcome string

const (
	OutcomeFetchFailed     Outcome = "fetch_failed"
	OutcomeParseFailed     Outcome = "parse_failed"
	OutcomeNoNewItems      Outcome = "no_new_items"
	OutcomeSkippedFirstRun Outcome = "skipped_first_run"
	OutcomeFiltered        Outcome = "filtered"
	OutcomeFilterFailed    Outcome = "filter_failed"
	OutcomeDelivered       Outcome = "delivered"
	OutcomeCancelled       Outcome = "cancelled"
)

// CycleResult describes one fetch, dedupe and notify pass.
type CycleResult struct {
	ID          string
	StartedAt   time.Time
	CompletedAt time.Time
	Outcome     Outcome
	Fetched     int
	New         []Record
	Delivery    DeliveryReport
	Err         error
}

// DeliveryReport counts per-record notification results for a cycle.
type DeliveryReport struct {
	Delivered int
	Failed    int
}
