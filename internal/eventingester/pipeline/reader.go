package pipeline

import (
	"bufio"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/clock"

	"github.com/hadronproject/hadron/internal/common/hadroncontext"
	"github.com/hadronproject/hadron/internal/eventingester/metrics"
	"github.com/hadronproject/hadron/internal/eventingester/model"
	"github.com/hadronproject/hadron/internal/eventingester/parser"
)

// Log progress every 10 seconds - frequent enough for monitoring, not too noisy
const progressLogInterval = 10 * time.Second

// Lines longer than this are malformed by construction; cap the scanner so a corrupt
// file cannot balloon memory.
const maxLineBytes = 1024 * 1024

// Reader streams one input file onto the shared buffer. Every successfully parsed
// event is put exactly once, in file order. Malformed lines are counted and logged
// but never abort the file; an I/O error ends this reader only.
type Reader struct {
	path         string
	buffer       *Buffer
	counters     *model.Counters
	metrics      *metrics.Metrics
	offerTimeout time.Duration
	clock        clock.Clock
}

func NewReader(path string, buffer *Buffer, counters *model.Counters, m *metrics.Metrics, offerTimeout time.Duration) *Reader {
	return &Reader{
		path:         path,
		buffer:       buffer,
		counters:     counters,
		metrics:      m,
		offerTimeout: offerTimeout,
		clock:        clock.RealClock{},
	}
}

// Run reads the file line by line until EOF or cancellation. The file is never
// materialised in memory as a whole.
func (r *Reader) Run(ctx *hadroncontext.Context) error {
	ctx = hadroncontext.WithLogField(ctx, "file", r.path)
	ctx.Log.Info("Starting reader")

	f, err := os.Open(r.path)
	if err != nil {
		return errors.WithMessagef(err, "could not open %s", r.path)
	}
	defer f.Close()

	start := r.clock.Now()
	lastLog := start
	produced := 0
	lineNumber := 0
	seenContent := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			ctx.Log.Info("Reader cancelled, shutting down")
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		lineNumber++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !seenContent {
			seenContent = true
			if trimmed == parser.Header {
				ctx.Log.Info("Skipping header line")
				continue
			}
		}

		event, err := parser.Parse(line)
		if err != nil {
			r.counters.RejectedParse.Add(1)
			r.metrics.RecordParseError(parseErrorKind(err))
			ctx.Log.WithError(err).Warnf("Failed to parse line %d", lineNumber)
			continue
		}

		if err := r.put(ctx, Item{Event: event}); err != nil {
			ctx.Log.Info("Reader cancelled, shutting down")
			return err
		}
		r.counters.Produced.Add(1)
		r.metrics.RecordEventsProduced(1)
		produced++

		if now := r.clock.Now(); now.Sub(lastLog) >= progressLogInterval {
			elapsed := now.Sub(start)
			ctx.Log.Infof("Produced %d events (%.0f events/sec)", produced, float64(produced)/elapsed.Seconds())
			lastLog = now
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "error reading %s", r.path)
	}

	ctx.Log.Infof("Reader completed, produced %d events from %d lines", produced, lineNumber)
	return nil
}

// put offers the item with a short bounded wait so that backpressure is visible in
// metrics, then falls back to an unconditional blocking put.
func (r *Reader) put(ctx *hadroncontext.Context, item Item) error {
	ok, err := r.buffer.Offer(ctx, item, r.offerTimeout)
	if err != nil || ok {
		return err
	}
	r.metrics.RecordOfferRefused()
	ctx.Log.Warn("Buffer full, blocking until the event is accepted")
	return r.buffer.Put(ctx, item)
}

func parseErrorKind(err error) string {
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return string(parseErr.Kind)
	}
	return "unknown"
}
