package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Import kinds.
const (
	KindSchedule = "schedule"
	KindUpload   = "upload"
	KindFile     = "file"
)

// Entry describes one finished import.
type Entry struct {
	ID        uuid.UUID
	UserHash  string
	Source    string
	Kind      string
	Imported  int
	Skipped   int
	Status    string
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// Store persists import history.
type Store interface {
	// Record appends e. A zero ID is replaced with a new one.
	Record(ctx context.Context, e Entry) error

	// Recent returns up to limit entries for userHash, newest first.
	Recent(ctx context.Context, userHash string, limit int) ([]Entry, error)

	Close() error
}

func prepare(e Entry) Entry {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	e.StartedAt = e.StartedAt.UTC()
	return e
}
