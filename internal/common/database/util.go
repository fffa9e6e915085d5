package database

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UniqueTableName returns a name unique enough to be used for a temporary staging
// table for batch inserts into table.
func UniqueTableName(table string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%s_tmp_%s", table, suffix)
}
