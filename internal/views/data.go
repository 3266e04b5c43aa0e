package views

import (
	"strconv"
	"time"
)

// AppName is shown in page titles and the header.
const AppName = "Schedule Importer"

// ImportingDelay is how long the importing page waits before it submits the
// import request.
const ImportingDelay = 1200 * time.Millisecond

// ScheduleOption is one entry of the schedule select box.
type ScheduleOption struct {
	Index int
	Label string
}

// HistoryRow is one line of the recent imports table.
type HistoryRow struct {
	Source   string
	Kind     string
	Imported int
	Status   string
	When     time.Time
}

// DashboardData is everything the dashboard shows.
type DashboardData struct {
	Name      string
	Schedules []ScheduleOption
	Recent    []HistoryRow
}

func pageTitle(title string) string {
	if title == "" {
		return AppName
	}
	return title + " · " + AppName
}

func importingDelayMillis() string {
	return strconv.FormatInt(ImportingDelay.Milliseconds(), 10)
}
