package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coastline-livery/charterbooks/cmd/report"
)

func TestReportCommand_Metadata(t *testing.T) {
	assert.Equal(t, "report", report.Cmd.Use)
	assert.Contains(t, report.Cmd.Long, "month-end workbook")
	assert.NotNil(t, report.Cmd.PersistentFlags().Lookup("output"))
}

func TestReportCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range report.Cmd.Commands() {
		names[sub.Name()] = true
		assert.NotNil(t, sub.RunE, "%s has no RunE", sub.Name())
	}
	for _, want := range []string{"revenue", "unmatched", "monthend", "statement", "invoice", "confirmation"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
