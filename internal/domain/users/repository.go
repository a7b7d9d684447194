package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("user not found")

	// ErrAlreadyExists is returned by Repository.Create when another row
	// already holds the firebase uid.
	ErrAlreadyExists = errors.New("user already exists")
)

type User struct {
	ID          int64
	FirebaseUID string
	Email       string
	Username    string
	CreatedAt   time.Time
}

// Identity is what a login hands back to the client.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type NewUser struct {
	FirebaseUID string
	Email       string
	Username    string
}

type Repository interface {
	FindByFirebaseUID(ctx context.Context, firebaseUID string) (User, error)
	Create(ctx context.Context, params NewUser) (User, error)
}
