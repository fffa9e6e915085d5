package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateConnectionString(values map[string]string) string {
	// https://www.postgresql.org/docs/10/libpq-connect.html#id-1.7.3.8.3.5
	result := ""
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	for k, v := range values {
		result += k + "='" + replacer.Replace(v) + "' "
	}
	return result
}

func OpenPgxPool(connection map[string]string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(context.Background(), CreateConnectionString(connection))
	if err != nil {
		return nil, err
	}
	err = db.Ping(context.Background())
	return db, err
}
