package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hadronproject/hadron/internal/common/hadroncontext"
	"github.com/hadronproject/hadron/internal/eventingester/metrics"
	"github.com/hadronproject/hadron/internal/eventingester/model"
)

var testMetrics = metrics.Get()

// recordingSink stores batches in memory, deduplicating on event id the way the
// database sink does.
type recordingSink struct {
	mu      sync.Mutex
	batches [][]model.Event
	rows    map[uuid.UUID]model.Event
	err     error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{rows: map[uuid.UUID]model.Event{}}
}

func (s *recordingSink) Store(_ *hadroncontext.Context, events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	batch := make([]model.Event, len(events))
	copy(batch, events)
	s.batches = append(s.batches, batch)
	for _, e := range events {
		if _, ok := s.rows[e.EventID]; !ok {
			s.rows[e.EventID] = e
		}
	}
	return nil
}

func (s *recordingSink) batchLengths() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	lengths := make([]int, len(s.batches))
	for i, b := range s.batches {
		lengths[i] = len(b)
	}
	return lengths
}

func (s *recordingSink) rowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *recordingSink) committed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, b := range s.batches {
		total += len(b)
	}
	return total
}

// blockingSink stalls every commit until the caller's context is cancelled. Used to
// exercise the abort path.
type blockingSink struct{}

func (s *blockingSink) Store(ctx *hadroncontext.Context, _ []model.Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func testConfig() Config {
	return Config{
		ReaderCount:     1,
		ConsumerCount:   1,
		BufferCapacity:  100,
		BatchSize:       1000,
		EnergyThreshold: 50.0,
		OfferTimeout:    50 * time.Millisecond,
		TakeTimeout:     50 * time.Millisecond,
		AbortGrace:      2 * time.Second,
	}
}

func writeEventFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// eventLine renders one valid input line with the given sequence number and energy.
func eventLine(i int, energy float64) string {
	return fmt.Sprintf("00000000-0000-0000-0000-%012d,2024-01-01T00:00:00Z,%.1f,MUON,true", i+1, energy)
}

func runPipeline(t *testing.T, config Config, sink Sink, inputs ...string) (model.Report, *IngestionPipeline) {
	t.Helper()
	p, err := NewIngestionPipeline(config, inputs, sink, testMetrics)
	require.NoError(t, err)
	report, err := p.Run(hadroncontext.Background())
	require.NoError(t, err)
	return report, p
}
