package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coastline-livery/charterbooks/cmd/db"
)

func TestDbCommand_Metadata(t *testing.T) {
	assert.Equal(t, "db", db.Cmd.Use)
	assert.Contains(t, db.Cmd.Short, "Database")
}

func TestDbCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range db.Cmd.Commands() {
		names[sub.Use] = true
	}
	assert.True(t, names["ping"])
	assert.True(t, names["migrate"])
}
