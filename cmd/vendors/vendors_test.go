package vendors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coastline-livery/charterbooks/cmd/vendors"
)

func TestVendorsCommand_Metadata(t *testing.T) {
	assert.Equal(t, "vendors", vendors.Cmd.Use)
	assert.Contains(t, vendors.Cmd.Long, "canonical")
}

func TestVendorsCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range vendors.Cmd.Commands() {
		names[sub.Name()] = true
		assert.NotNil(t, sub.RunE, "%s has no RunE", sub.Name())
	}
	assert.True(t, names["list"])
	assert.True(t, names["add"])
}
