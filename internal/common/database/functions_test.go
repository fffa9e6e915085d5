package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateConnectionString(t *testing.T) {
	result := CreateConnectionString(map[string]string{
		"host": "localhost",
	})
	assert.Equal(t, "host='localhost' ", result)
}

func TestCreateConnectionStringEscapesValues(t *testing.T) {
	result := CreateConnectionString(map[string]string{
		"password": `it's a \secret`,
	})
	assert.Equal(t, `password='it\'s a \\secret' `, result)
}

func TestUniqueTableNames(t *testing.T) {
	first := UniqueTableName("particle_events")
	second := UniqueTableName("particle_events")
	assert.True(t, strings.HasPrefix(first, "particle_events_tmp_"))
	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "-")
}
