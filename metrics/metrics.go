package metrics

import (
	"context"
	"time"
)

// Recorder receives pipeline measurements. Implementations must be safe for concurrent use.
type Recorder interface {
	// Request counts one terminal pipeline response
	Request(ctx context.Context, provider, code string, status int)

	// Verification counts one signature check; strategy is "none" when both failed
	Verification(ctx context.Context, provider, strategy string, verified bool)

	// Outcome counts one dispatched event
	Outcome(ctx context.Context, provider, kind, outcome string)

	// Duration records how long the pipeline took for one request
	Duration(ctx context.Context, provider string, d time.Duration)
}

// Nop discards every measurement
type Nop struct{}

func (Nop) Request(context.Context, string, string, int) {}
func (Nop) Verification(context.Context, string, string, bool) {}
func (Nop) Outcome(context.Context, string, string, string) {}
func (Nop) Duration(context.Context, string, time.Duration) {}

// Snapshot is the delivery ledger as seen at one point in time
type Snapshot struct {
	// Deliveries maps ledger state ("pending", "applied") to the number of tracked delivery ids
	Deliveries map[string]int64 `json:"deliveries"`

	// Timestamp when the snapshot was taken
	Timestamp time.Time `json:"timestamp"`
}

// Collector reads gauge values from the delivery ledger
type Collector interface {
	// Collect gathers a full snapshot
	Collect(ctx context.Context) (Snapshot, error)

	// GetDeliveryCounts returns tracked delivery ids per ledger state
	GetDeliveryCounts(ctx context.Context) (map[string]int64, error)
}
