package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSchedule is returned for a schedule index outside the catalog.
	ErrInvalidSchedule = errors.New("invalid schedule selection")

	// ErrScheduleNotFound is returned when a catalog file does not exist.
	ErrScheduleNotFound = errors.New("schedule CSV file not found")
)

// SubmissionError reports a failed create call. Events before Position were
// created and are not rolled back.
type SubmissionError struct {
	// Position is the zero-based index of the event that failed.
	Position int
	Total    int
	Created  int
	Summary  string
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to create event %d of %d (%q), %d created: %v",
		e.Position+1, e.Total, e.Summary, e.Created, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
