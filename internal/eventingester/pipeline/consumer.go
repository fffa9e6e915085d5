package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/hadronproject/hadron/internal/common/hadroncontext"
	"github.com/hadronproject/hadron/internal/eventingester/metrics"
	"github.com/hadronproject/hadron/internal/eventingester/model"
)

// Consumer takes events from the buffer, drops those at or below the energy
// threshold and commits the survivors to the sink in batches. A partial batch is
// flushed when the consumer exits, on every exit path.
type Consumer struct {
	id          int
	buffer      *Buffer
	sink        Sink
	counters    *model.Counters
	metrics     *metrics.Metrics
	threshold   float64
	batchSize   int
	takeTimeout time.Duration
	draining    *atomic.Bool
	onError     func(error)
}

func NewConsumer(
	id int,
	buffer *Buffer,
	sink Sink,
	counters *model.Counters,
	m *metrics.Metrics,
	threshold float64,
	batchSize int,
	takeTimeout time.Duration,
	draining *atomic.Bool,
	onError func(error),
) *Consumer {
	return &Consumer{
		id:          id,
		buffer:      buffer,
		sink:        sink,
		counters:    counters,
		metrics:     m,
		threshold:   threshold,
		batchSize:   batchSize,
		takeTimeout: takeTimeout,
		draining:    draining,
		onError:     onError,
	}
}

// Run consumes until an end marker arrives, the buffer stays empty after draining has
// been signalled, or ctx is cancelled. It always returns having flushed any residual
// batch exactly once.
func (c *Consumer) Run(ctx *hadroncontext.Context) {
	ctx = hadroncontext.WithLogField(ctx, "consumer", c.id)
	ctx.Log.Infof("Consumer started, threshold %.1f GeV", c.threshold)

	batch := make([]model.Event, 0, c.batchSize)
	for {
		item, err := c.buffer.Take(ctx, c.takeTimeout)
		if err == ErrTimeout {
			// The buffer can empty out before the end markers arrive. The draining
			// flag lets us exit anyway once the pipeline has said no more events are
			// coming.
			if c.draining.Load() {
				ctx.Log.Info("Buffer drained, flushing and exiting")
				c.flush(ctx, batch)
				return
			}
			continue
		}
		if err != nil {
			ctx.Log.Info("Consumer cancelled, flushing residual batch")
			// ctx is already done; give the residual flush its own bounded context so
			// the sink still gets a chance to commit.
			flushCtx, cancel := hadroncontext.WithTimeout(
				hadroncontext.New(context.Background(), ctx.Log), c.takeTimeout)
			c.flush(flushCtx, batch)
			cancel()
			return
		}
		if item.End {
			ctx.Log.Info("Received end marker, flushing and exiting")
			c.flush(ctx, batch)
			return
		}

		c.counters.Consumed.Add(1)
		c.metrics.RecordEventsConsumed(1)

		// Events at or below the threshold are uninteresting for analysis and are
		// discarded here, before they cost a database write.
		if item.Event.EnergyGev <= c.threshold {
			continue
		}
		c.counters.Retained.Add(1)
		c.metrics.RecordEventsRetained(1)
		batch = append(batch, item.Event)
		if len(batch) >= c.batchSize {
			c.flush(ctx, batch)
			batch = batch[:0]
		}
	}
}

// flush commits the batch through the sink. The batch is dead after the call whether
// or not the commit succeeded; the pipeline does not retry.
func (c *Consumer) flush(ctx *hadroncontext.Context, batch []model.Event) {
	if len(batch) == 0 {
		return
	}
	start := time.Now()
	if err := c.sink.Store(ctx, batch); err != nil {
		c.counters.RejectedInsert.Add(int64(len(batch)))
		c.metrics.RecordInsertErrors(len(batch))
		ctx.Log.WithError(err).Errorf("Failed to commit batch of %d events", len(batch))
		if c.onError != nil {
			c.onError(errors.WithMessagef(err, "consumer %d failed to commit a batch of %d events", c.id, len(batch)))
		}
		return
	}
	ctx.Log.Infof("Committed %d events in %dms", len(batch), time.Since(start).Milliseconds())
}
