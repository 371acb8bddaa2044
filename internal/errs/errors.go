// Package errs defines the error types shared across the application's
// parsing, matching, and migration layers.
package errs

import "fmt"

// ParseError represents an error during parsing of an external document,
// such as a bank statement file or a legacy export.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for an input file or record.
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Subject, e.Reason)
}

// MatchError represents a failure while matching bank transactions against
// internal records.
type MatchError struct {
	TransactionID int64
	Rule          string
	Err           error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("matching failed for transaction %d using %s: %v",
		e.TransactionID, e.Rule, e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

// MigrationError represents a failure while migrating a legacy record.
// ReserveNumber identifies the source record when one is known.
type MigrationError struct {
	Source        string
	ReserveNumber string
	Err           error
}

func (e *MigrationError) Error() string {
	if e.ReserveNumber != "" {
		return fmt.Sprintf("migration from %s failed for reserve %s: %v",
			e.Source, e.ReserveNumber, e.Err)
	}
	return fmt.Sprintf("migration from %s failed: %v", e.Source, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// InvalidFormatError represents an error where an input file does not conform
// to the expected format for a specific parser.
type InvalidFormatError struct {
	FilePath       string
	ExpectedFormat string
	Msg            string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}
