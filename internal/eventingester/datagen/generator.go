package datagen

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hadronproject/hadron/internal/eventingester/model"
	"github.com/hadronproject/hadron/internal/eventingester/parser"
)

var particleTypes = []model.ParticleType{model.Electron, model.Muon, model.Proton}

// Generator produces synthetic collision events for load and pipeline testing.
// Energies are drawn uniformly from 0.1-125.1 GeV so that roughly 40% of events fall
// at or below the default 50 GeV threshold, exercising the filter.
type Generator struct {
	rand *rand.Rand
	now  func() time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rand: rand.New(rand.NewSource(seed)),
		now:  time.Now,
	}
}

// Event returns one random event with a timestamp within the last 24 hours.
func (g *Generator) Event() model.Event {
	return model.Event{
		EventID:           uuid.New(),
		Timestamp:         g.now().Add(-time.Duration(g.rand.Intn(86400)) * time.Second).UTC().Truncate(time.Second),
		EnergyGev:         0.1 + g.rand.Float64()*125.0,
		Type:              particleTypes[g.rand.Intn(len(particleTypes))],
		DetectedAtTracker: g.rand.Intn(2) == 0,
	}
}

// Write renders a header followed by rows random events in the ingestion format.
func (g *Generator) Write(w io.Writer, rows int) error {
	buffered := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(buffered, parser.Header); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		event := g.Event()
		_, err := fmt.Fprintf(buffered, "%s,%s,%.2f,%s,%t\n",
			event.EventID,
			event.Timestamp.Format(time.RFC3339),
			event.EnergyGev,
			event.Type,
			event.DetectedAtTracker)
		if err != nil {
			return err
		}
	}
	return buffered.Flush()
}

// WriteFile generates rows events into path, creating parent directories as needed.
func (g *Generator) WriteFile(path string, rows int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "could not create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "could not create %s", path)
	}
	if err := g.Write(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
