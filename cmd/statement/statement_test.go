package statement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coastline-livery/charterbooks/cmd/statement"
)

func TestStatementCommand_Metadata(t *testing.T) {
	assert.Equal(t, "statement", statement.Cmd.Use)
	assert.Contains(t, statement.Cmd.Long, "duplicate lines are dropped")
}

func TestImportCommand_Registered(t *testing.T) {
	var found bool
	for _, sub := range statement.Cmd.Commands() {
		if sub.Name() == "import" {
			found = true
			assert.NotNil(t, sub.RunE)
			require.NotNil(t, sub.Flags().Lookup("account"))
			assert.NotNil(t, sub.Args, "import must require a file argument")
		}
	}
	assert.True(t, found, "statement import not registered")
}
