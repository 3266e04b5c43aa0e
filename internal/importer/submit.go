package importer

import (
	"context"
	"time"

	"github.com/teemow/calimport/internal/calendar"
	"github.com/teemow/calimport/internal/instrumentation"
	"github.com/teemow/calimport/internal/schedule"
)

// EventInserter creates a single event in a calendar.
// *calendar.Client implements it.
type EventInserter interface {
	InsertEvent(ctx context.Context, calendarID string, ev schedule.CalendarEvent) (*calendar.EventSummary, error)
}

// Submit creates events in order, waiting for each call before starting the
// next. It returns the number created. The first failure stops submission
// and is returned as a *SubmissionError.
func Submit(ctx context.Context, inserter EventInserter, calendarID string, events []schedule.CalendarEvent) (int, error) {
	created := 0
	for i, ev := range events {
		if _, err := inserter.InsertEvent(ctx, calendarID, ev); err != nil {
			return created, &SubmissionError{
				Position: i,
				Total:    len(events),
				Created:  created,
				Summary:  ev.Summary,
				Err:      err,
			}
		}
		created++
	}
	return created, nil
}

// instrumentedInserter traces and counts every create call.
type instrumentedInserter struct {
	next    EventInserter
	metrics *instrumentation.Metrics
}

func (i instrumentedInserter) InsertEvent(ctx context.Context, calendarID string, ev schedule.CalendarEvent) (*calendar.EventSummary, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationCreate)
	defer span.End()

	start := time.Now()
	created, err := i.next.InsertEvent(ctx, calendarID, ev)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	if i.metrics != nil {
		i.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, instrumentation.OperationCreate, status, time.Since(start))
	}
	return created, err
}
