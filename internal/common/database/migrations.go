package database

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type Migration struct {
	Id   int
	Name string
	Sql  string
}

func NewMigration(id int, name string, sql string) Migration {
	return Migration{Id: id, Name: name, Sql: sql}
}

// UpdateDatabase applies all migrations with an id greater than the current database
// version, in order. The version is tracked in a postgres sequence so that reruns are
// no-ops.
func UpdateDatabase(ctx context.Context, db Querier, migrations []Migration) error {
	log.Info("Updating postgres...")
	version, err := readVersion(ctx, db)
	if err != nil {
		return err
	}
	log.Infof("Current version %v", version)

	for _, m := range migrations {
		if m.Id > version {
			log.Infof("Applying migration %d: %s", m.Id, m.Name)
			_, err := db.Exec(ctx, m.Sql)
			if err != nil {
				return err
			}

			version = m.Id
			err = setVersion(ctx, db, version)
			if err != nil {
				return err
			}
		}
	}
	log.Info("Database updated.")
	return nil
}

func readVersion(ctx context.Context, db Querier) (int, error) {
	_, err := db.Exec(ctx,
		`CREATE SEQUENCE IF NOT EXISTS database_version START WITH 0 MINVALUE 0;`)
	if err != nil {
		return 0, err
	}

	result, err := db.Query(ctx,
		`SELECT last_value FROM database_version`)
	if err != nil {
		return 0, err
	}
	defer result.Close()

	var version int
	if result.Next() {
		err = result.Scan(&version)
	}
	return version, err
}

func setVersion(ctx context.Context, db Querier, version int) error {
	_, err := db.Exec(ctx, `SELECT setval('database_version', $1)`, version)
	return err
}
