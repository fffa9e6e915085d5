package configuration

import (
	"time"
)

type PostgresConfig struct {
	// Connection details in postgres keyword/value form, e.g. host, port, dbname
	Connection map[string]string
}

type EventIngesterConfiguration struct {
	// Database configuration
	Postgres PostgresConfig
	// Port on which prometheus metrics are exposed
	MetricsPort uint16 `validate:"required"`
	// Files to ingest; each file is read by exactly one reader
	InputFiles []string
	// Number of reader workers launched
	ReaderCount int `validate:"gt=0"`
	// Number of consumer workers launched
	ConsumerCount int `validate:"gt=0"`
	// Maximum number of events buffered between readers and consumers
	BufferCapacity int `validate:"gt=0"`
	// Number of events that will be batched together before being inserted into the database
	BatchSize int `validate:"gt=0"`
	// Events with energy at or below this bound are discarded
	EnergyThresholdGev float64 `validate:"gte=0"`
	// Time for which a reader will wait for buffer capacity before surfacing
	// backpressure and blocking outright
	OfferTimeout time.Duration `validate:"gt=0"`
	// Time for which a consumer will wait for a new event before re-checking for
	// termination
	TakeTimeout time.Duration `validate:"gt=0"`
	// Time allowed for the worker pools to settle after an abort is signalled
	AbortGrace time.Duration `validate:"gt=0"`
}
