package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ParticleType is the closed set of particle classes we ingest. Extend the list here
// to support more classes.
type ParticleType string

const (
	Electron ParticleType = "ELECTRON"
	Muon     ParticleType = "MUON"
	Proton   ParticleType = "PROTON"
)

var particleTypes = map[string]ParticleType{
	"ELECTRON": Electron,
	"MUON":     Muon,
	"PROTON":   Proton,
}

// ParticleTypeFromString resolves a case-insensitive particle type token.
func ParticleTypeFromString(s string) (ParticleType, error) {
	if pt, ok := particleTypes[strings.ToUpper(s)]; ok {
		return pt, nil
	}
	return "", errors.Errorf("unknown particle type %q", s)
}

// Event is a single collision event detected by the accelerator. Events are treated
// as immutable once constructed and are safe to share between goroutines.
type Event struct {
	EventID           uuid.UUID
	Timestamp         time.Time
	EnergyGev         float64
	Type              ParticleType
	DetectedAtTracker bool
}

// Validate checks the invariants that every event flowing through the pipeline must
// satisfy: a non-nil id, a timestamp and a non-negative energy.
func (e Event) Validate() error {
	if e.EventID == uuid.Nil {
		return errors.New("event id cannot be nil")
	}
	if e.Timestamp.IsZero() {
		return errors.New("event timestamp cannot be zero")
	}
	if e.EnergyGev < 0 {
		return errors.Errorf("event energy cannot be negative: %f", e.EnergyGev)
	}
	if _, err := ParticleTypeFromString(string(e.Type)); err != nil {
		return err
	}
	return nil
}
