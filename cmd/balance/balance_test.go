package balance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coastline-livery/charterbooks/cmd/balance"
)

func TestBalanceCommand_Metadata(t *testing.T) {
	assert.Equal(t, "balance", balance.Cmd.Use)
	assert.Contains(t, balance.Cmd.Long, "paid amount")
	assert.Contains(t, balance.Cmd.Long, "--write")
}

func TestBalanceCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range balance.Cmd.Commands() {
		names[sub.Name()] = true
		assert.NotNil(t, sub.RunE, "%s has no RunE", sub.Name())
	}
	assert.True(t, names["verify"])
	assert.True(t, names["repair"])
}
