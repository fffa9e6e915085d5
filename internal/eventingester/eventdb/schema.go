package eventdb

import (
	"context"

	"github.com/hadronproject/hadron/internal/common/database"
)

// Migrations is the ordered schema history of the event store. The energy and
// timestamp indexes are descending because the query layer reads "most energetic
// first" and "most recent first".
func Migrations() []database.Migration {
	return []database.Migration{
		database.NewMigration(1, "initial schema", `
			CREATE TABLE particle_events (
				event_id            uuid PRIMARY KEY,
				timestamp           timestamptz NOT NULL,
				energy_gev          double precision NOT NULL,
				particle_type       varchar(20) NOT NULL,
				detected_at_tracker boolean NOT NULL
			);`),
		database.NewMigration(2, "energy index", `
			CREATE INDEX idx_energy_gev ON particle_events (energy_gev DESC);`),
		database.NewMigration(3, "timestamp index", `
			CREATE INDEX idx_timestamp ON particle_events (timestamp DESC);`),
	}
}

func Migrate(ctx context.Context, db database.Querier) error {
	return database.UpdateDatabase(ctx, db, Migrations())
}
