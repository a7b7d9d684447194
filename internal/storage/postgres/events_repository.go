package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Togather-Foundation/agenda/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	db *DB
}

func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, user_id, title, date, time, description, link, created_at, updated_at`

type eventRow struct {
	ID          int64
	UserID      int64
	Title       string
	Date        pgtype.Date
	Time        pgtype.Time
	Description *string
	Link        *string
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

func (r *eventRow) scanTargets() []any {
	return []any{
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.Date,
		&r.Time,
		&r.Description,
		&r.Link,
		&r.CreatedAt,
		&r.UpdatedAt,
	}
}

func (r eventRow) toDomain() events.Event {
	return events.Event{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Date:        r.Date.Time,
		Time:        time.Duration(r.Time.Microseconds) * time.Microsecond,
		Description: r.Description,
		Link:        r.Link,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

func (r *EventRepository) ListByUser(ctx context.Context, userID int64) ([]events.Event, error) {
	rows, err := r.db.Query(ctx, "list_events", `
SELECT `+eventColumns+`
  FROM events
 WHERE user_id = $1
 ORDER BY date ASC, time ASC, id ASC
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]events.Event, 0)
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, WrapRowsError("list_events", err)
		}
		items = append(items, row.toDomain())
	}
	if err := WrapRowsError("list_events", rows.Err()); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *EventRepository) Get(ctx context.Context, id int64) (events.Event, error) {
	var row eventRow
	err := r.db.QueryRow(ctx, "get_event", `
SELECT `+eventColumns+`
  FROM events
 WHERE id = $1
`, id).Scan(row.scanTargets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return events.Event{}, events.ErrNotFound
	}
	if err != nil {
		return events.Event{}, err
	}
	return row.toDomain(), nil
}

func (r *EventRepository) Create(ctx context.Context, userID int64, fields events.Fields) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, "create_event", `
INSERT INTO events (user_id, title, date, time, description, link)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`,
		userID,
		fields.Title,
		dateParam(fields.Date),
		clockParam(fields.Time),
		fields.Description,
		fields.Link,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *EventRepository) Update(ctx context.Context, id int64, fields events.Fields) error {
	affected, err := r.db.Exec(ctx, "update_event", `
UPDATE events
   SET title = $2,
       date = $3,
       time = $4,
       description = $5,
       link = $6,
       updated_at = now()
 WHERE id = $1
`,
		id,
		fields.Title,
		dateParam(fields.Date),
		clockParam(fields.Time),
		fields.Description,
		fields.Link,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.db.Exec(ctx, "delete_event", `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return events.ErrNotFound
	}
	return nil
}

func dateParam(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

func clockParam(d time.Duration) pgtype.Time {
	return pgtype.Time{Microseconds: d.Microseconds(), Valid: true}
}
