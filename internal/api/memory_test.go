package api

import (
	"context"
	"sort"
	"sync"

	"github.com/Togather-Foundation/agenda/internal/domain/events"
	"github.com/Togather-Foundation/agenda/internal/domain/users"
)

type memoryUsers struct {
	mu     sync.Mutex
	byUID  map[string]users.User
	nextID int64
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byUID: map[string]users.User{}, nextID: 1}
}

func (m *memoryUsers) FindByFirebaseUID(_ context.Context, uid string) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byUID[uid]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (m *memoryUsers) Create(_ context.Context, params users.NewUser) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUID[params.FirebaseUID]; ok {
		return users.User{}, users.ErrAlreadyExists
	}
	u := users.User{ID: m.nextID, FirebaseUID: params.FirebaseUID, Email: params.Email, Username: params.Username}
	m.nextID++
	m.byUID[u.FirebaseUID] = u
	return u, nil
}

type memoryEvents struct {
	mu     sync.Mutex
	rows   map[int64]events.Event
	nextID int64
}

func newMemoryEvents() *memoryEvents {
	return &memoryEvents{rows: map[int64]events.Event{}, nextID: 1}
}

func (m *memoryEvents) ListByUser(_ context.Context, userID int64) ([]events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []events.Event
	for _, e := range m.rows {
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

func (m *memoryEvents) Get(_ context.Context, id int64) (events.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return events.Event{}, events.ErrNotFound
	}
	return e, nil
}

func (m *memoryEvents) Create(_ context.Context, userID int64, f events.Fields) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.rows[id] = events.Event{ID: id, UserID: userID, Title: f.Title, Date: f.Date, Time: f.Time, Description: f.Description, Link: f.Link}
	return id, nil
}

func (m *memoryEvents) Update(_ context.Context, id int64, f events.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return events.ErrNotFound
	}
	e.Title, e.Date, e.Time, e.Description, e.Link = f.Title, f.Date, f.Time, f.Description, f.Link
	m.rows[id] = e
	return nil
}

func (m *memoryEvents) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return events.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}
