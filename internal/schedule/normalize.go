package schedule

import (
	"fmt"
	"strings"
	"time"
)

const wallClockLayout = "2006-01-02T15:04:05"

// NormalizeDate converts DD/MM/YYYY, DD-MM-YYYY or DD/MM/YY into YYYY-MM-DD.
// It returns "" when s is empty or has no year part. Values are not validated
// against the calendar, so "31/13/2024" becomes "2024-13-31".
func NormalizeDate(s string) string {
	if s == "" {
		return ""
	}
	parts := strings.Split(strings.ReplaceAll(s, "-", "/"), "/")
	if len(parts) < 3 {
		return ""
	}
	day, month, year := parts[0], parts[1], parts[2]
	if year == "" {
		return ""
	}
	if len(year) == 2 {
		year = "20" + year
	}
	return year + "-" + pad2(month) + "-" + pad2(day)
}

func pad2(s string) string {
	if len(s) < 2 {
		return strings.Repeat("0", 2-len(s)) + s
	}
	return s
}

// Normalizer converts raw rows into events. Dates and times in a row are
// wall-clock values in Location; a nil Location means time.Local.
type Normalizer struct {
	Location *time.Location
}

// Normalize converts row into a CalendarEvent. ok is false when a required
// field is empty, in which case the row should be skipped. An error is
// returned only when the timestamps cannot be parsed.
func (n Normalizer) Normalize(row RawRow) (ev CalendarEvent, ok bool, err error) {
	summary := strings.TrimSpace(row[ColumnSubject])
	startDate := NormalizeDate(strings.TrimSpace(row[ColumnStartDate]))
	startTime := strings.TrimSpace(row[ColumnStartTime])
	endDate := NormalizeDate(strings.TrimSpace(row[ColumnEndDate]))
	endTime := strings.TrimSpace(row[ColumnEndTime])
	description := strings.TrimSpace(row[ColumnDescription])

	if summary == "" || startDate == "" || startTime == "" || endDate == "" || endTime == "" {
		return CalendarEvent{}, false, nil
	}

	start, err := n.parse("start", startDate, startTime)
	if err != nil {
		return CalendarEvent{}, false, err
	}
	end, err := n.parse("end", endDate, endTime)
	if err != nil {
		return CalendarEvent{}, false, err
	}

	return CalendarEvent{
		Summary:     summary,
		Description: description,
		Start:       start,
		End:         end,
	}, true, nil
}

func (n Normalizer) parse(field, date, clock string) (time.Time, error) {
	loc := n.Location
	if loc == nil {
		loc = time.Local
	}
	value := date + "T" + clock + ":00"
	t, err := time.ParseInLocation(wallClockLayout, value, loc)
	if err != nil {
		return time.Time{}, &TimestampError{Field: field, Value: value, Err: err}
	}
	return t.UTC(), nil
}

// LoadLocation resolves a timezone name for a Normalizer. An empty name or
// "Local" selects the server's local zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return loc, nil
}
