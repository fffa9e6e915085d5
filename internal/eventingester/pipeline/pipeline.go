package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/clock"

	"github.com/hadronproject/hadron/internal/common/hadroncontext"
	"github.com/hadronproject/hadron/internal/eventingester/metrics"
	"github.com/hadronproject/hadron/internal/eventingester/model"
)

// State is the lifecycle position of a pipeline run.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateDraining
	StateAborting
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateAborting:
		return "aborting"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Config holds the knobs of one ingestion run. All counts and durations must be
// positive.
type Config struct {
	// Number of reader workers launched
	ReaderCount int
	// Number of consumer workers and of end markers enqueued
	ConsumerCount int
	// Maximum number of events held in the buffer
	BufferCapacity int
	// Number of events per sink commit
	BatchSize int
	// Retention bound; only events strictly above it are kept
	EnergyThreshold float64
	// Reader bounded-offer wait before falling back to a blocking put
	OfferTimeout time.Duration
	// Consumer bounded-take wait before re-checking the draining flag
	TakeTimeout time.Duration
	// Wait between signalling abort and giving up on the worker pools
	AbortGrace time.Duration
}

func (c Config) validate() error {
	if c.ReaderCount <= 0 {
		return errors.Errorf("reader count must be positive, got %d", c.ReaderCount)
	}
	if c.ConsumerCount <= 0 {
		return errors.Errorf("consumer count must be positive, got %d", c.ConsumerCount)
	}
	if c.BufferCapacity <= 0 {
		return errors.Errorf("buffer capacity must be positive, got %d", c.BufferCapacity)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.EnergyThreshold < 0 {
		return errors.Errorf("energy threshold cannot be negative, got %f", c.EnergyThreshold)
	}
	if c.OfferTimeout <= 0 || c.TakeTimeout <= 0 || c.AbortGrace <= 0 {
		return errors.New("offer timeout, take timeout and abort grace must all be positive")
	}
	return nil
}

// IngestionPipeline coordinates one run: it owns the buffer, the counters and the
// draining flag, launches the reader and consumer pools, sequences drain and
// shutdown and produces the terminal report. A pipeline is good for a single Run.
type IngestionPipeline struct {
	config   Config
	inputs   []string
	sink     Sink
	metrics  *metrics.Metrics
	counters *model.Counters
	buffer   *Buffer
	draining atomic.Bool
	state    atomic.Int32
	clock    clock.Clock

	mu       sync.Mutex
	degraded *multierror.Error
}

func NewIngestionPipeline(config Config, inputs []string, sink Sink, m *metrics.Metrics) (*IngestionPipeline, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, errors.New("pipeline requires a sink")
	}
	return &IngestionPipeline{
		config:   config,
		inputs:   inputs,
		sink:     sink,
		metrics:  m,
		counters: &model.Counters{},
		buffer:   NewBuffer(config.BufferCapacity),
		clock:    clock.RealClock{},
	}, nil
}

func (p *IngestionPipeline) State() State {
	return State(p.state.Load())
}

func (p *IngestionPipeline) Counters() *model.Counters {
	return p.counters
}

// Degraded aggregates the recoverable failures of the run: readers that died on I/O
// errors and batches that failed to commit. A degraded run still drains successfully;
// callers decide what to make of it.
func (p *IngestionPipeline) Degraded() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.degraded.ErrorOrNil()
}

func (p *IngestionPipeline) recordError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.degraded = multierror.Append(p.degraded, err)
}

// Run executes the pipeline until every input has been read and every surviving
// event committed, or until ctx is cancelled. On the drain path the returned error is
// nil; counters in the report reveal partial degradation.
func (p *IngestionPipeline) Run(ctx *hadroncontext.Context) (model.Report, error) {
	p.state.Store(int32(StateStarting))
	start := p.clock.Now()
	ctx.Log.Infof("Starting ingestion pipeline with %d reader(s), %d consumer(s), buffer capacity %d",
		p.config.ReaderCount, p.config.ConsumerCount, p.config.BufferCapacity)

	consumerGroup, consumerCtx := hadroncontext.ErrGroup(ctx)
	for i := 0; i < p.config.ConsumerCount; i++ {
		consumer := NewConsumer(
			i, p.buffer, p.sink, p.counters, p.metrics,
			p.config.EnergyThreshold, p.config.BatchSize, p.config.TakeTimeout,
			&p.draining, p.recordError)
		consumerGroup.Go(func() error {
			consumer.Run(consumerCtx)
			return nil
		})
	}

	// Readers pull file paths from a work channel; a file is never split between two
	// readers, so per-input ordering is preserved.
	files := make(chan string, len(p.inputs))
	for _, path := range p.inputs {
		files <- path
	}
	close(files)

	readerGroup, readerCtx := hadroncontext.ErrGroup(ctx)
	for i := 0; i < p.config.ReaderCount; i++ {
		readerGroup.Go(func() error {
			for path := range files {
				reader := NewReader(path, p.buffer, p.counters, p.metrics, p.config.OfferTimeout)
				if err := reader.Run(readerCtx); err != nil {
					if readerCtx.Err() != nil {
						return err
					}
					// An I/O error is fatal for this input only; the worker moves on
					// to the next file.
					readerCtx.Log.WithError(err).Errorf("Reader for %s failed", path)
					p.recordError(err)
				}
			}
			return nil
		})
	}
	p.state.Store(int32(StateRunning))

	if err := p.wait(ctx, readerGroup); err != nil {
		return p.abort(ctx, consumerGroup, start, err)
	}

	// All readers have joined, so nothing can enter the buffer behind the end
	// markers.
	p.state.Store(int32(StateDraining))
	ctx.Log.Info("All readers completed, sending end markers to consumers")
	for i := 0; i < p.config.ConsumerCount; i++ {
		if err := p.buffer.Put(ctx, EndItem()); err != nil {
			return p.abort(ctx, consumerGroup, start, err)
		}
	}
	p.draining.Store(true)

	if err := p.wait(ctx, consumerGroup); err != nil {
		p.state.Store(int32(StateTerminated))
		return p.counters.Report(p.clock.Since(start)), err
	}

	report := p.counters.Report(p.clock.Since(start))
	ctx.Log.Infof("Ingestion pipeline completed: %s", report)
	if err := p.Degraded(); err != nil {
		ctx.Log.WithError(err).Warn("Pipeline completed with degraded results")
	}
	p.state.Store(int32(StateTerminated))
	return report, nil
}

// wait blocks until the group settles. If ctx is cancelled first it allows the
// workers a grace period to finish their cooperative shutdown.
func (p *IngestionPipeline) wait(ctx *hadroncontext.Context, group *errgroup.Group) error {
	done := make(chan struct{})
	go func() {
		_ = group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		select {
		case <-done:
			return ctx.Err()
		case <-p.clock.After(p.config.AbortGrace):
			return errors.WithMessagef(ctx.Err(), "workers did not settle within %s", p.config.AbortGrace)
		}
	}
}

// abort is the error shutdown path: consumers are told to drain, given the grace
// period, and the run is reported with whatever was committed.
func (p *IngestionPipeline) abort(ctx *hadroncontext.Context, consumers *errgroup.Group, start time.Time, cause error) (model.Report, error) {
	p.state.Store(int32(StateAborting))
	p.draining.Store(true)

	done := make(chan struct{})
	go func() {
		_ = consumers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-p.clock.After(p.config.AbortGrace):
		ctx.Log.Error("Consumers did not settle within the abort grace period")
		cause = multierror.Append(cause, errors.New("consumers did not settle within the abort grace period"))
	}

	report := p.counters.Report(p.clock.Since(start))
	ctx.Log.Infof("Ingestion pipeline aborted: %s", report)
	p.state.Store(int32(StateTerminated))
	return report, cause
}
