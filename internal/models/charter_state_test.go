package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    CharterStatus
		to      CharterStatus
		allowed bool
	}{
		{"booked to confirmed", StatusBooked, StatusConfirmed, true},
		{"booked to cancelled", StatusBooked, StatusCancelled, true},
		{"confirmed to dispatched", StatusConfirmed, StatusDispatched, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"dispatched to completed", StatusDispatched, StatusCompleted, true},
		{"completed to closed", StatusCompleted, StatusClosed, true},
		{"same state is a no-op", StatusBooked, StatusBooked, true},
		{"dispatched cannot cancel", StatusDispatched, StatusCancelled, false},
		{"completed cannot cancel", StatusCompleted, StatusCancelled, false},
		{"booked cannot skip to dispatched", StatusBooked, StatusDispatched, false},
		{"closed is terminal", StatusClosed, StatusBooked, false},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, false},
		{"unknown status", CharterStatus("limbo"), StatusBooked, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestApplyTransition(t *testing.T) {
	now := time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)

	c := &Charter{Status: StatusBooked}
	require.NoError(t, ApplyTransition(c, StatusConfirmed, now))
	assert.Equal(t, StatusConfirmed, c.Status)
	require.NotNil(t, c.ConfirmedAt)
	assert.Equal(t, now, *c.ConfirmedAt)
	assert.Equal(t, now, c.UpdatedAt)

	// Walking the rest of the lifecycle stamps each timestamp once
	later := now.Add(24 * time.Hour)
	require.NoError(t, ApplyTransition(c, StatusDispatched, later))
	require.NoError(t, ApplyTransition(c, StatusCompleted, later))
	require.NoError(t, ApplyTransition(c, StatusClosed, later))
	assert.True(t, c.IsTerminal())
	require.NotNil(t, c.ClosedAt)

	// Shortcut transitions fail and leave the charter untouched
	c2 := &Charter{Status: StatusBooked}
	err := ApplyTransition(c2, StatusCompleted, now)
	require.Error(t, err)
	assert.Equal(t, StatusBooked, c2.Status)
	assert.Nil(t, c2.CompletedAt)
}

func TestApplyTransition_NilCharter(t *testing.T) {
	err := ApplyTransition(nil, StatusConfirmed, time.Now())
	require.Error(t, err)
}

func TestApplyTransition_CancelWindow(t *testing.T) {
	now := time.Now()

	c := &Charter{Status: StatusConfirmed}
	require.NoError(t, ApplyTransition(c, StatusCancelled, now))
	require.NotNil(t, c.CancelledAt)

	dispatched := &Charter{Status: StatusDispatched}
	require.Error(t, ApplyTransition(dispatched, StatusCancelled, now))
}
