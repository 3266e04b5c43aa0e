package schedule

import (
	"fmt"
	"time"
)

// Column names read from a schedule header.
const (
	ColumnSubject     = "Subject"
	ColumnStartDate   = "Start Date"
	ColumnStartTime   = "Start Time"
	ColumnEndDate     = "End Date"
	ColumnEndTime     = "End Time"
	ColumnDescription = "Description"
)

// RawRow maps a header column name to the cell value of one data row.
// Columns absent from a short row are absent from the map.
type RawRow map[string]string

// CalendarEvent is a normalized row ready to be created remotely.
// Start and End are absolute instants in UTC.
type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// ParseError reports a malformed CSV record.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csv parse error on line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TimestampError reports a date/time pair that could not be parsed.
type TimestampError struct {
	Field string
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("invalid %s timestamp %q: %v", e.Field, e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error { return e.Err }
