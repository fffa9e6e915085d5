package model

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Counters is the run-scoped telemetry for one ingestion run. It is owned by the
// pipeline and shared by reference with readers and consumers; all fields are atomics.
type Counters struct {
	Produced       atomic.Int64
	Consumed       atomic.Int64
	Retained       atomic.Int64
	RejectedParse  atomic.Int64
	RejectedInsert atomic.Int64
}

// Report is an immutable snapshot of the counters at the end of a run.
type Report struct {
	Elapsed        time.Duration
	Produced       int64
	Consumed       int64
	Retained       int64
	RejectedParse  int64
	RejectedInsert int64
}

func (c *Counters) Report(elapsed time.Duration) Report {
	return Report{
		Elapsed:        elapsed,
		Produced:       c.Produced.Load(),
		Consumed:       c.Consumed.Load(),
		Retained:       c.Retained.Load(),
		RejectedParse:  c.RejectedParse.Load(),
		RejectedInsert: c.RejectedInsert.Load(),
	}
}

// EventsPerSecond derives the run throughput from the produced count.
func (r Report) EventsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Produced) / r.Elapsed.Seconds()
}

func (r Report) String() string {
	return fmt.Sprintf(
		"produced: %d, consumed: %d, retained: %d, parse errors: %d, insert errors: %d, elapsed: %s (%.0f events/sec)",
		r.Produced, r.Consumed, r.Retained, r.RejectedParse, r.RejectedInsert, r.Elapsed.Round(time.Millisecond), r.EventsPerSecond())
}
