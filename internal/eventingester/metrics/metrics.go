package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBOperation string

const (
	DBOperationInsert          DBOperation = "insert"
	DBOperationRead            DBOperation = "read"
	DBOperationCreateTempTable DBOperation = "create_temp_table"
)

const HadronEventIngesterMetricsPrefix = "hadron_event_ingester_"

type Metrics struct {
	eventsProduced prometheus.Counter
	eventsConsumed prometheus.Counter
	eventsRetained prometheus.Counter
	parseErrors    *prometheus.CounterVec
	insertErrors   prometheus.Counter
	offersRefused  prometheus.Counter
	dbErrors       *prometheus.CounterVec
}

var m = NewMetrics(HadronEventIngesterMetricsPrefix)

func Get() *Metrics {
	return m
}

func NewMetrics(prefix string) *Metrics {
	return &Metrics{
		eventsProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "events_produced",
			Help: "Number of events read from input files and offered to the pipeline",
		}),
		eventsConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "events_consumed",
			Help: "Number of events taken from the pipeline buffer",
		}),
		eventsRetained: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "events_retained",
			Help: "Number of events that survived the energy filter",
		}),
		parseErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "parse_errors",
			Help: "Number of rejected input lines grouped by offending field",
		}, []string{"kind"}),
		insertErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "insert_errors",
			Help: "Number of events in batches that failed to commit",
		}),
		offersRefused: promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "offers_refused",
			Help: "Number of bounded buffer offers that timed out before the blocking put",
		}),
		dbErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "db_errors",
			Help: "Number of database errors grouped by database operation",
		}, []string{"operation"}),
	}
}

func (m *Metrics) RecordEventsProduced(count int) {
	m.eventsProduced.Add(float64(count))
}

func (m *Metrics) RecordEventsConsumed(count int) {
	m.eventsConsumed.Add(float64(count))
}

func (m *Metrics) RecordEventsRetained(count int) {
	m.eventsRetained.Add(float64(count))
}

func (m *Metrics) RecordParseError(kind string) {
	m.parseErrors.With(map[string]string{"kind": kind}).Inc()
}

func (m *Metrics) RecordInsertErrors(count int) {
	m.insertErrors.Add(float64(count))
}

func (m *Metrics) RecordOfferRefused() {
	m.offersRefused.Inc()
}

func (m *Metrics) RecordDBError(operation DBOperation) {
	m.dbErrors.With(map[string]string{"operation": string(operation)}).Inc()
}
