package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/teemow/calimport/internal/calendar"
	"github.com/teemow/calimport/internal/google"
	"github.com/teemow/calimport/internal/schedule"
)

var errQuota = errors.New("quota exceeded")

// fakeInserter records created events and fails the call at failAt (1-based)
// when failAt > 0.
type fakeInserter struct {
	mu         sync.Mutex
	failAt     int
	calls      int
	calendarID string
	created    []schedule.CalendarEvent
	inFlight   int
	maxFlight  int
}

func (f *fakeInserter) InsertEvent(_ context.Context, calendarID string, ev schedule.CalendarEvent) (*calendar.EventSummary, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	call := f.calls
	f.calendarID = calendarID
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.failAt > 0 && call == f.failAt {
		return nil, errQuota
	}

	f.mu.Lock()
	f.created = append(f.created, ev)
	f.mu.Unlock()
	return &calendar.EventSummary{ID: fmt.Sprintf("evt-%d", call), Summary: ev.Summary}, nil
}

func factoryFor(f *fakeInserter, gotCreds *google.Credentials) ClientFactory {
	return func(_ context.Context, creds google.Credentials) (EventInserter, error) {
		if gotCreds != nil {
			*gotCreds = creds
		}
		return f, nil
	}
}
