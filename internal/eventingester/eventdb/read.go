package eventdb

import (
	"github.com/hadronproject/hadron/internal/common/hadroncontext"
	"github.com/hadronproject/hadron/internal/eventingester/metrics"
	"github.com/hadronproject/hadron/internal/eventingester/model"
)

// Statistics summarises the stored events.
type Statistics struct {
	TotalEvents     int64
	AvgEnergy       float64
	MaxEnergy       float64
	MinEnergy       float64
	HighEnergyCount int64
}

// HighEnergyEvents returns up to limit events with energy at or above minEnergy,
// most energetic first.
func (e *EventDb) HighEnergyEvents(ctx *hadroncontext.Context, minEnergy float64, limit int) ([]model.Event, error) {
	rows, err := e.db.Query(ctx, `
		SELECT event_id, timestamp, energy_gev, particle_type, detected_at_tracker
		FROM particle_events
		WHERE energy_gev >= $1
		ORDER BY energy_gev DESC
		LIMIT $2`, minEnergy, limit)
	if err != nil {
		e.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var event model.Event
		var particleType string
		if err := rows.Scan(&event.EventID, &event.Timestamp, &event.EnergyGev, &particleType, &event.DetectedAtTracker); err != nil {
			e.metrics.RecordDBError(metrics.DBOperationRead)
			return nil, err
		}
		event.Type = model.ParticleType(particleType)
		events = append(events, event)
	}
	return events, rows.Err()
}

// CountAbove returns the number of stored events with energy at or above minEnergy.
func (e *EventDb) CountAbove(ctx *hadroncontext.Context, minEnergy float64) (int64, error) {
	var count int64
	err := e.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM particle_events WHERE energy_gev >= $1`, minEnergy).Scan(&count)
	if err != nil {
		e.metrics.RecordDBError(metrics.DBOperationRead)
		return 0, err
	}
	return count, nil
}

// Statistics returns aggregate figures for the whole store.
func (e *EventDb) Statistics(ctx *hadroncontext.Context) (Statistics, error) {
	var stats Statistics
	err := e.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(energy_gev), 0),
			COALESCE(MAX(energy_gev), 0),
			COALESCE(MIN(energy_gev), 0),
			COUNT(*) FILTER (WHERE energy_gev >= 50.0)
		FROM particle_events`).
		Scan(&stats.TotalEvents, &stats.AvgEnergy, &stats.MaxEnergy, &stats.MinEnergy, &stats.HighEnergyCount)
	if err != nil {
		e.metrics.RecordDBError(metrics.DBOperationRead)
		return Statistics{}, err
	}
	return stats, nil
}
