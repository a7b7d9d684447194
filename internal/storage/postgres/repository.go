package postgres

import (
	"fmt"

	"github.com/Togather-Foundation/agenda/internal/domain/events"
	"github.com/Togather-Foundation/agenda/internal/domain/users"
	"github.com/Togather-Foundation/agenda/internal/storage"
)

var _ storage.Repository = (*Repository)(nil)

// Repository implements storage.Repository on top of the gateway.
type Repository struct {
	users  *UserRepository
	events *EventRepository
}

func NewRepository(db *DB) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("postgres repository: db is nil")
	}
	return &Repository{
		users:  NewUserRepository(db),
		events: NewEventRepository(db),
	}, nil
}

func (r *Repository) Users() users.Repository {
	return r.users
}

func (r *Repository) Events() events.Repository {
	return r.events
}
