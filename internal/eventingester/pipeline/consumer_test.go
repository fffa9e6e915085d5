package pipeline

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadronproject/hadron/internal/common/hadroncontext"
	"github.com/hadronproject/hadron/internal/eventingester/model"
)

func testEvent(i int, energy float64) model.Event {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000000")
	id[15] = byte(i + 1)
	return model.Event{
		EventID:   id,
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EnergyGev: energy,
		Type:      model.Muon,
	}
}

func newTestConsumer(buffer *Buffer, sink Sink, batchSize int, draining *atomic.Bool) (*Consumer, *model.Counters) {
	counters := &model.Counters{}
	consumer := NewConsumer(0, buffer, sink, counters, testMetrics, 50.0, batchSize, 50*time.Millisecond, draining, nil)
	return consumer, counters
}

func TestConsumerFlushesResidualOnEndMarker(t *testing.T) {
	ctx := hadroncontext.Background()
	buffer := NewBuffer(10)
	sink := newRecordingSink()
	consumer, counters := newTestConsumer(buffer, sink, 1000, &atomic.Bool{})

	require.NoError(t, buffer.Put(ctx, Item{Event: testEvent(0, 90.0)}))
	require.NoError(t, buffer.Put(ctx, Item{Event: testEvent(1, 10.0)}))
	require.NoError(t, buffer.Put(ctx, EndItem()))

	consumer.Run(ctx)

	assert.Equal(t, int64(2), counters.Consumed.Load())
	assert.Equal(t, int64(1), counters.Retained.Load())
	assert.Equal(t, []int{1}, sink.batchLengths())
}

func TestConsumerExitsOnDrainingFlagWhenBufferEmpty(t *testing.T) {
	ctx := hadroncontext.Background()
	buffer := NewBuffer(10)
	sink := newRecordingSink()
	draining := &atomic.Bool{}
	consumer, _ := newTestConsumer(buffer, sink, 1000, draining)

	require.NoError(t, buffer.Put(ctx, Item{Event: testEvent(0, 90.0)}))
	draining.Store(true)

	done := make(chan struct{})
	go func() {
		consumer.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not exit on draining flag")
	}
	assert.Equal(t, []int{1}, sink.batchLengths())
}

func TestConsumerFlushesAtBatchSize(t *testing.T) {
	ctx := hadroncontext.Background()
	buffer := NewBuffer(10)
	sink := newRecordingSink()
	consumer, _ := newTestConsumer(buffer, sink, 2, &atomic.Bool{})

	for i := 0; i < 5; i++ {
		require.NoError(t, buffer.Put(ctx, Item{Event: testEvent(i, 90.0)}))
	}
	require.NoError(t, buffer.Put(ctx, EndItem()))

	consumer.Run(ctx)

	assert.Equal(t, []int{2, 2, 1}, sink.batchLengths())
}

func TestConsumerNeverForwardsEndMarker(t *testing.T) {
	ctx := hadroncontext.Background()
	buffer := NewBuffer(10)
	sink := newRecordingSink()
	consumer, counters := newTestConsumer(buffer, sink, 1000, &atomic.Bool{})

	require.NoError(t, buffer.Put(ctx, EndItem()))
	consumer.Run(ctx)

	assert.Equal(t, int64(0), counters.Consumed.Load())
	assert.Empty(t, sink.batchLengths())
	assert.Equal(t, 0, sink.rowCount())
}

func TestConsumerRecordsFailedBatch(t *testing.T) {
	ctx := hadroncontext.Background()
	buffer := NewBuffer(10)
	sink := newRecordingSink()
	sink.err = assert.AnError

	var recorded error
	counters := &model.Counters{}
	consumer := NewConsumer(0, buffer, sink, counters, testMetrics, 50.0, 1000, 50*time.Millisecond, &atomic.Bool{},
		func(err error) { recorded = err })

	require.NoError(t, buffer.Put(ctx, Item{Event: testEvent(0, 90.0)}))
	require.NoError(t, buffer.Put(ctx, EndItem()))

	consumer.Run(ctx)

	assert.Equal(t, int64(1), counters.RejectedInsert.Load())
	assert.Error(t, recorded)
}

func TestConsumerFlushesResidualOnCancellation(t *testing.T) {
	buffer := NewBuffer(10)
	sink := newRecordingSink()
	consumer, _ := newTestConsumer(buffer, sink, 1000, &atomic.Bool{})

	ctx, cancel := hadroncontext.WithCancel(hadroncontext.Background())
	require.NoError(t, buffer.Put(ctx, Item{Event: testEvent(0, 90.0)}))

	done := make(chan struct{})
	go func() {
		consumer.Run(ctx)
		close(done)
	}()

	// Give the consumer time to pick up the event, then cancel mid-take.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not exit after cancellation")
	}
	assert.Equal(t, []int{1}, sink.batchLengths())
}
