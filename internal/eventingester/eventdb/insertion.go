package eventdb

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/hadronproject/hadron/internal/common/database"
	"github.com/hadronproject/hadron/internal/common/hadroncontext"
	"github.com/hadronproject/hadron/internal/eventingester/metrics"
	"github.com/hadronproject/hadron/internal/eventingester/model"
)

// EventDb writes collision events into postgres. It satisfies the pipeline's Sink
// contract: a batch commits in a single transaction and rows whose event id already
// exists are silently skipped, so re-ingesting the same input is a no-op.
type EventDb struct {
	db      *pgxpool.Pool
	metrics *metrics.Metrics
}

func NewEventDb(db *pgxpool.Pool, metrics *metrics.Metrics) *EventDb {
	return &EventDb{db: db, metrics: metrics}
}

// Store commits the batch. The whole list either commits or fails; duplicate event
// ids are not errors.
func (e *EventDb) Store(ctx *hadroncontext.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	start := time.Now()
	if err := e.insertBatch(ctx, events); err != nil {
		return errors.WithMessagef(err, "could not insert batch of %d events", len(events))
	}
	ctx.Log.Infof("Inserted %d events in %dms", len(events), time.Since(start).Milliseconds())
	return nil
}

func (e *EventDb) Close() {
	e.db.Close()
}

// insertBatch stages the batch into a temporary table with the postgres copy
// protocol, then moves it into the destination table in the same transaction.
func (e *EventDb) insertBatch(ctx *hadroncontext.Context, events []model.Event) error {
	tmpTable := database.UniqueTableName("particle_events")

	createTmp := func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, fmt.Sprintf(`
			CREATE TEMPORARY TABLE %s
			(
			  event_id            uuid,
			  timestamp           timestamptz,
			  energy_gev          double precision,
			  particle_type       varchar(20),
			  detected_at_tracker boolean
			) ON COMMIT DROP;`, tmpTable))
		if err != nil {
			e.metrics.RecordDBError(metrics.DBOperationCreateTempTable)
		}
		return err
	}

	insertTmp := func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{tmpTable},
			[]string{"event_id", "timestamp", "energy_gev", "particle_type", "detected_at_tracker"},
			pgx.CopyFromSlice(len(events), func(i int) ([]interface{}, error) {
				return []interface{}{
					events[i].EventID,
					events[i].Timestamp,
					events[i].EnergyGev,
					string(events[i].Type),
					events[i].DetectedAtTracker,
				}, nil
			}),
		)
		return err
	}

	copyToDest := func(tx pgx.Tx) error {
		_, err := tx.Exec(
			ctx,
			fmt.Sprintf(`
				INSERT INTO particle_events (event_id, timestamp, energy_gev, particle_type, detected_at_tracker) SELECT * from %s
				ON CONFLICT (event_id) DO NOTHING`, tmpTable),
		)
		if err != nil {
			e.metrics.RecordDBError(metrics.DBOperationInsert)
		}
		return err
	}

	return batchInsert(ctx, e.db, createTmp, insertTmp, copyToDest)
}

func batchInsert(ctx *hadroncontext.Context, db *pgxpool.Pool, createTmp func(pgx.Tx) error,
	insertTmp func(pgx.Tx) error, copyToDest func(pgx.Tx) error,
) error {
	return pgx.BeginTxFunc(ctx, db, pgx.TxOptions{
		IsoLevel:       pgx.ReadCommitted,
		AccessMode:     pgx.ReadWrite,
		DeferrableMode: pgx.Deferrable,
	}, func(tx pgx.Tx) error {
		// Create a temporary table to hold the staging data
		err := createTmp(tx)
		if err != nil {
			return err
		}

		err = insertTmp(tx)
		if err != nil {
			return err
		}

		err = copyToDest(tx)
		if err != nil {
			return err
		}
		return nil
	})
}
