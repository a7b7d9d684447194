package events

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

// Event is a stored calendar entry. Date is midnight UTC of the calendar day
// and Time is the offset of the wall-clock time from midnight.
type Event struct {
	ID          int64
	UserID      int64
	Title       string
	Date        time.Time
	Time        time.Duration
	Description *string
	Link        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DateString renders Date as YYYY-MM-DD.
func (e Event) DateString() string {
	return FormatDate(e.Date)
}

// TimeString renders Time as HH:MM.
func (e Event) TimeString() string {
	return FormatClock(e.Time)
}

// Fields are the mutable columns of an event, already validated and
// normalised. Updates always write every field.
type Fields struct {
	Title       string
	Date        time.Time
	Time        time.Duration
	Description *string
	Link        *string
}

type Repository interface {
	// ListByUser returns the user's events ordered by date, time, then id.
	ListByUser(ctx context.Context, userID int64) ([]Event, error)
	Get(ctx context.Context, id int64) (Event, error)
	Create(ctx context.Context, userID int64, fields Fields) (int64, error)
	// Update and Delete return ErrNotFound when no row has the id.
	Update(ctx context.Context, id int64, fields Fields) error
	Delete(ctx context.Context, id int64) error
}
