package core

import (
	"context"
	"time"
)

// Processor is the base interface that all processors implement
type Processor interface {
	// Name returns the processor name
	Name() string
	// Validate checks if the processor configuration is valid
	Validate() error
}

// TriggerEvent represents a trigger firing
type TriggerEvent struct {
	Timestamp time.Time
}

// TriggerProcessor decides when a poll cycle runs.
type TriggerProcessor interface {
	Processor
	// Start begins the trigger and returns a channel of trigger events.
	// The channel is closed when the trigger stops.
	Start(ctx context.Context) (<-chan TriggerEvent, error)
	Stop() error
}

// SourceProcessor fetches the feed and turns it into candidate records, in
// feed order. Errors wrap ErrFetch or ErrParse.
type SourceProcessor interface {
	Processor
	Fetch(ctx context.Context) ([]Record, error)
}

// FilterProcessor narrows the new records of a cycle before delivery.
type FilterProcessor interface {
	Processor
	Filter(ctx context.Context, records []Record) ([]Record, error)
}

// Notifier delivers one record to an external endpoint.
type Notifier interface {
	Processor
	Notify(ctx context.Context, record Record) error
}

// OutputProcessor delivers the new records of a cycle. Delivery is best
// effort: failures are counted, never returned.
type OutputProcessor interface {
	Processor
	Deliver(ctx context.Context, records []Record) DeliveryReport
}
