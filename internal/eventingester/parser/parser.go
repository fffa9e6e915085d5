package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hadronproject/hadron/internal/eventingester/model"
)

// Header is the optional first line of an event file. Readers discard it if present.
const Header = "event_id,timestamp,energy_gev,particle_type,detected_at_tracker"

const (
	delimiter      = ","
	expectedFields = 5
)

// ErrorKind identifies which rule a line violated. The values double as metrics labels.
type ErrorKind string

const (
	ErrorKindEmpty     ErrorKind = "empty"
	ErrorKindArity     ErrorKind = "arity"
	ErrorKindEventId   ErrorKind = "event_id"
	ErrorKindTimestamp ErrorKind = "timestamp"
	ErrorKindEnergy    ErrorKind = "energy"
	ErrorKindType      ErrorKind = "particle_type"
	ErrorKindDetected  ErrorKind = "detected"
)

// ParseError reports a single rejected line together with the field that caused the
// rejection. Parse failures are recoverable; callers count and log them.
type ParseError struct {
	Kind   ErrorKind
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func parseErrorf(kind ErrorKind, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Parse converts one line of an event file into an Event. It is pure and safe for
// concurrent use. Errors are always of type *ParseError.
func Parse(line string) (model.Event, error) {
	if strings.TrimSpace(line) == "" {
		return model.Event{}, parseErrorf(ErrorKindEmpty, "line is empty")
	}

	fields := strings.Split(line, delimiter)
	if len(fields) != expectedFields {
		return model.Event{}, parseErrorf(ErrorKindArity, "expected %d fields, got %d", expectedFields, len(fields))
	}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}

	eventId, err := uuid.Parse(fields[0])
	if err != nil {
		return model.Event{}, parseErrorf(ErrorKindEventId, "invalid event id %q", fields[0])
	}

	timestamp, err := time.Parse(time.RFC3339, fields[1])
	if err != nil {
		return model.Event{}, parseErrorf(ErrorKindTimestamp, "invalid timestamp %q (expected ISO-8601)", fields[1])
	}

	energy, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || math.IsNaN(energy) || math.IsInf(energy, 0) {
		return model.Event{}, parseErrorf(ErrorKindEnergy, "invalid energy %q", fields[2])
	}
	if energy < 0 {
		return model.Event{}, parseErrorf(ErrorKindEnergy, "energy cannot be negative: %s", fields[2])
	}

	particleType, err := model.ParticleTypeFromString(fields[3])
	if err != nil {
		return model.Event{}, parseErrorf(ErrorKindType, "invalid particle type %q", fields[3])
	}

	detected, err := parseBool(fields[4])
	if err != nil {
		return model.Event{}, parseErrorf(ErrorKindDetected, "invalid boolean %q (expected true or false)", fields[4])
	}

	return model.Event{
		EventID:           eventId,
		Timestamp:         timestamp.UTC(),
		EnergyGev:         energy,
		Type:              particleType,
		DetectedAtTracker: detected,
	}, nil
}

// parseBool accepts only the literals true and false, case-insensitively. Numeric
// forms accepted by strconv.ParseBool are not valid here.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean literal: %q", value)
}
