// Package dateutils provides common date and time operations used throughout the application.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets the logger used by this package. A nil logger is ignored.
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Common date format constants used throughout the application
const (
	DateLayoutISO    = "2006-01-02"
	DateLayoutUS     = "01/02/2006"
	DateLayoutFull   = "2006-01-02 15:04:05"
	DateLayoutOFX    = "20060102"
	DateLayoutAccess = "1/2/2006 15:04:05"
	DateLayoutMonth  = "2006-01"
)

// CommonFormats is a list of standard formats to try when parsing dates.
// The list covers the bank CSV exports, OFX timestamps, and the Access
// datetime strings found in LMS exports.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutUS,
	DateLayoutFull,
	DateLayoutOFX,
	DateLayoutAccess,
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate attempts to parse a date string using multiple common formats.
// Returns the parsed time and the detected format.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// FormatDate formats a time.Time value according to the specified layout.
// If no layout is provided, DateLayoutISO is used.
func FormatDate(date time.Time, layout string) string {
	if layout == "" {
		layout = DateLayoutISO
	}
	return date.Format(layout)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// MonthKey returns the YYYY-MM grouping key for a date. Revenue and
// reconciliation reports group rows by this key.
func MonthKey(date time.Time) string {
	return date.Format(DateLayoutMonth)
}

// CleanDateString removes unwanted characters and normalizes a date string
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)

	re := regexp.MustCompile(`\s+`)
	dateStr = re.ReplaceAllString(dateStr, " ")

	return dateStr
}

// Truncate drops the time-of-day component, keeping the calendar date in UTC.
func Truncate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute number of whole calendar days between two
// dates. Time-of-day components are ignored.
func DaysBetween(a, b time.Time) int {
	days := int(Truncate(b).Sub(Truncate(a)).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// StartOfMonth returns the first day of the month for a given date
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// EndOfMonth returns the last day of the month for a given date
func EndOfMonth(date time.Time) time.Time {
	return StartOfMonth(date).AddDate(0, 1, -1)
}
