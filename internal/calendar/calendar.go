// Package calendar is the boundary to the remote event store.
package calendar

import (
	"context"
	"time"

	"github.com/athenahq/scheduling-assistant/internal/models"
)

// Client is the calendar backend contract the core depends on. All
// operations are remote and fallible; token refresh is the
// implementation's concern, never the caller's.
type Client interface {
	// ListBusy returns the busy intervals across the given calendars
	// within [start, end].
	ListBusy(ctx context.Context, calendarIDs []string, start, end time.Time) ([]models.BusyInterval, error)

	// ListEvents returns the events across the given calendars within
	// [start, end], ordered by start time.
	ListEvents(ctx context.Context, calendarIDs []string, start, end time.Time) ([]models.EventRecord, error)

	CreateEvent(ctx context.Context, calendarID string, event models.EventRecord) (*models.EventRecord, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, changes models.EventRecord) (*models.EventRecord, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}
