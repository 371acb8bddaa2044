package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name        string
		dateStr     string
		expectedOk  bool
		expectedY   int
		expectedM   time.Month
		expectedD   int
		expectedFmt string
	}{
		{"ISO format", "2024-07-15", true, 2024, time.July, 15, DateLayoutISO},
		{"US format", "07/15/2024", true, 2024, time.July, 15, DateLayoutUS},
		{"OFX format", "20240715", true, 2024, time.July, 15, DateLayoutOFX},
		{"Access datetime", "7/15/2024 13:30:00", true, 2024, time.July, 15, DateLayoutAccess},
		{"Access datetime AM/PM", "7/15/2024 1:30:00 PM", true, 2024, time.July, 15, "1/2/2006 3:04:05 PM"},
		{"Full timestamp", "2024-07-15 10:30:45", true, 2024, time.July, 15, DateLayoutFull},
		{"Extra whitespace", "  2024-07-15  ", true, 2024, time.July, 15, DateLayoutISO},
		{"Empty string", "", false, 0, 0, 0, ""},
		{"Invalid format", "not a date", false, 0, 0, 0, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			date, format, err := ParseDate(tc.dateStr)

			if tc.expectedOk {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedY, date.Year())
				assert.Equal(t, tc.expectedM, date.Month())
				assert.Equal(t, tc.expectedD, date.Day())
				assert.Equal(t, tc.expectedFmt, format)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	date := time.Date(2024, time.July, 15, 13, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-07-15", FormatDate(date, ""))
	assert.Equal(t, "07/15/2024", FormatDate(date, DateLayoutUS))
	assert.Equal(t, "2024-07-15", ToISODate(date))
	assert.Equal(t, "2024-07", MonthKey(date))
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want int
	}{
		{
			name: "same day different times",
			a:    time.Date(2024, 7, 15, 1, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 7, 15, 23, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "forward three days",
			a:    time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 7, 18, 0, 0, 0, 0, time.UTC),
			want: 3,
		},
		{
			name: "backward is absolute",
			a:    time.Date(2024, 7, 18, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
			want: 3,
		},
		{
			name: "across month boundary",
			a:    time.Date(2024, 6, 29, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 7, 2, 8, 0, 0, 0, time.UTC),
			want: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DaysBetween(tc.a, tc.b))
		})
	}
}

func TestMonthBoundaries(t *testing.T) {
	date := time.Date(2024, time.February, 14, 10, 0, 0, 0, time.UTC)

	start := StartOfMonth(date)
	assert.Equal(t, 2024, start.Year())
	assert.Equal(t, time.February, start.Month())
	assert.Equal(t, 1, start.Day())

	end := EndOfMonth(date)
	assert.Equal(t, 29, end.Day(), "2024 is a leap year")
}
