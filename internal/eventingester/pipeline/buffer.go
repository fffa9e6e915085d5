package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/clock"

	"github.com/hadronproject/hadron/internal/eventingester/model"
)

// Item is the tagged value carried by the Buffer: either a collision event or the end
// marker the pipeline injects once per consumer after all readers have finished. The
// end marker travels in-band so that it is ordered after every event put before it.
type Item struct {
	Event model.Event
	End   bool
}

// EndItem returns the end marker.
func EndItem() Item {
	return Item{End: true}
}

// ErrTimeout is returned by bounded buffer waits that expire before an item or
// capacity became available.
var ErrTimeout = errors.New("buffer: wait timed out")

// Buffer is the bounded handoff between readers and consumers. Multiple producers and
// consumers may use it concurrently; backpressure is the only overload policy. FIFO
// order is preserved per producer.
type Buffer struct {
	ch    chan Item
	clock clock.Clock
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		ch:    make(chan Item, capacity),
		clock: clock.RealClock{},
	}
}

// Put blocks until the buffer accepts the item or ctx is cancelled.
func (b *Buffer) Put(ctx context.Context, item Item) error {
	select {
	case b.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Offer waits up to timeout for capacity. The boolean is false if the wait timed out;
// the error is non-nil only on cancellation.
func (b *Buffer) Offer(ctx context.Context, item Item, timeout time.Duration) (bool, error) {
	select {
	case b.ch <- item:
		return true, nil
	default:
	}
	select {
	case b.ch <- item:
		return true, nil
	case <-b.clock.After(timeout):
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Take waits up to timeout for the next item. It returns ErrTimeout if the wait
// expired and the context error if ctx was cancelled.
func (b *Buffer) Take(ctx context.Context, timeout time.Duration) (Item, error) {
	select {
	case item := <-b.ch:
		return item, nil
	default:
	}
	select {
	case item := <-b.ch:
		return item, nil
	case <-b.clock.After(timeout):
		return Item{}, ErrTimeout
	case <-ctx.Done():
		return Item{}, ctx.Err()
	}
}

// Len is observational only; it may be stale by the time it returns.
func (b *Buffer) Len() int {
	return len(b.ch)
}

func (b *Buffer) Capacity() int {
	return cap(b.ch)
}
