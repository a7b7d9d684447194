package events

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	rows   map[int64]Event
	nextID int64
	err    error
}

func newStubRepo() *stubRepo {
	return &stubRepo{rows: map[int64]Event{}, nextID: 1}
}

func (r *stubRepo) ListByUser(_ context.Context, userID int64) ([]Event, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []Event
	for _, e := range r.rows {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *stubRepo) Get(_ context.Context, id int64) (Event, error) {
	if r.err != nil {
		return Event{}, r.err
	}
	e, ok := r.rows[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return e, nil
}

func (r *stubRepo) Create(_ context.Context, userID int64, f Fields) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	id := r.nextID
	r.nextID++
	r.rows[id] = Event{ID: id, UserID: userID, Title: f.Title, Date: f.Date, Time: f.Time, Description: f.Description, Link: f.Link}
	return id, nil
}

func (r *stubRepo) Update(_ context.Context, id int64, f Fields) error {
	if r.err != nil {
		return r.err
	}
	e, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	e.Title, e.Date, e.Time, e.Description, e.Link = f.Title, f.Date, f.Time, f.Description, f.Link
	r.rows[id] = e
	return nil
}

func (r *stubRepo) Delete(_ context.Context, id int64) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func strPtr(s string) *string { return &s }

func TestCreateAndList_OrderedByDateThenTime(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, zerolog.Nop())
	ctx := context.Background()

	inputs := []CreateParams{
		{UserID: 1, Title: "Late", Date: "2024-05-02", Time: "09:00"},
		{UserID: 1, Title: "Evening", Date: "2024-05-01", Time: "19:30"},
		{UserID: 2, Title: "Other user", Date: "2024-04-01", Time: "08:00"},
		{UserID: 1, Title: "Gym", Date: "2024-05-01", Time: "07:00"},
	}
	for _, in := range inputs {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	got, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 3)

	titles := []string{got[0].Title, got[1].Title, got[2].Title}
	require.Equal(t, []string{"Gym", "Evening", "Late"}, titles)
	require.Equal(t, "2024-05-01", got[0].DateString())
	require.Equal(t, "07:00", got[0].TimeString())
}

func TestList_EmptyIsNotNil(t *testing.T) {
	got, err := NewService(newStubRepo(), zerolog.Nop()).List(context.Background(), 99)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestCreate_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		params CreateParams
		fields []string
	}{
		{name: "no user", params: CreateParams{Title: "a", Date: "2024-05-01", Time: "07:00"}, fields: []string{"userId"}},
		{name: "no title", params: CreateParams{UserID: 1, Date: "2024-05-01", Time: "07:00"}, fields: []string{"title"}},
		{name: "blank title", params: CreateParams{UserID: 1, Title: " \t ", Date: "2024-05-01", Time: "07:00"}, fields: []string{"title"}},
		{name: "no date or time", params: CreateParams{UserID: 1, Title: "a"}, fields: []string{"date", "time"}},
		{name: "bad date", params: CreateParams{UserID: 1, Title: "a", Date: "May 1", Time: "07:00"}, fields: []string{"date"}},
		{name: "bad time", params: CreateParams{UserID: 1, Title: "a", Date: "2024-05-01", Time: "noon"}, fields: []string{"time"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			_, err := NewService(repo, zerolog.Nop()).Create(context.Background(), tt.params)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
			require.Equal(t, tt.fields, vErr.Fields)
			require.Empty(t, repo.rows, "no row may be persisted")
		})
	}
}

func TestCreate_NormalisesOptionalFields(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, zerolog.Nop())

	id, err := svc.Create(context.Background(), CreateParams{
		UserID:      1,
		Title:       "  <i>Dentist</i> ",
		Date:        "2024-06-10",
		Time:        "14:15:00",
		Description: strPtr("   "),
		Link:        strPtr(" https://clinic.example/booking "),
	})
	require.NoError(t, err)

	stored := repo.rows[id]
	require.Equal(t, "<i>Dentist</i>", stored.Title)
	require.Nil(t, stored.Description)
	require.NotNil(t, stored.Link)
	require.Equal(t, "https://clinic.example/booking", *stored.Link)
	require.Equal(t, "14:15", stored.TimeString())
}

func TestUpdate_OverwritesAllFields(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, zerolog.Nop())
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateParams{
		UserID: 1, Title: "Gym", Date: "2024-05-01", Time: "07:00",
		Description: strPtr("legs"), Link: strPtr("https://gym.example"),
	})
	require.NoError(t, err)

	update := UpdateParams{Title: "Pool", Date: "2024-05-03", Time: "18:00"}
	require.NoError(t, svc.Update(ctx, id, update))
	first := repo.rows[id]

	require.Equal(t, "Pool", first.Title)
	require.Equal(t, "2024-05-03", first.DateString())
	require.Nil(t, first.Description, "omitted description is cleared")
	require.Nil(t, first.Link, "omitted link is cleared")

	require.NoError(t, svc.Update(ctx, id, update))
	require.Equal(t, first, repo.rows[id], "applying the same update twice is idempotent")
}

func TestUpdate_ValidationBeforeNotFound(t *testing.T) {
	svc := NewService(newStubRepo(), zerolog.Nop())

	err := svc.Update(context.Background(), 999, UpdateParams{Title: "x"})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))

	err = svc.Update(context.Background(), 999, UpdateParams{Title: "x", Date: "2024-01-01", Time: "10:00"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetAndDelete_NotFound(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Get(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, 999), ErrNotFound)

	id, err := svc.Create(ctx, CreateParams{UserID: 1, Title: "a", Date: "2024-01-01", Time: "10:00"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, id))
	_, err = svc.Get(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryErrorsPropagate(t *testing.T) {
	repo := newStubRepo()
	repo.err = errors.New("connection reset")
	svc := NewService(repo, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.List(ctx, 1)
	require.ErrorIs(t, err, repo.err)
	_, err = svc.Create(ctx, CreateParams{UserID: 1, Title: "a", Date: "2024-01-01", Time: "10:00"})
	require.ErrorIs(t, err, repo.err)
}
