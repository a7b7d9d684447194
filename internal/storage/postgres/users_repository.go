package postgres

import (
	"context"
	"errors"

	"github.com/Togather-Foundation/agenda/internal/domain/users"
	"github.com/Togather-Foundation/agenda/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID          int64
	FirebaseUID string
	Email       string
	Username    string
	CreatedAt   pgtype.Timestamptz
}

func (r userRow) toDomain() users.User {
	return users.User{
		ID:          r.ID,
		FirebaseUID: r.FirebaseUID,
		Email:       r.Email,
		Username:    r.Username,
		CreatedAt:   r.CreatedAt.Time,
	}
}

func (r *UserRepository) FindByFirebaseUID(ctx context.Context, firebaseUID string) (users.User, error) {
	var row userRow
	err := r.db.QueryRow(ctx, "find_user_by_firebase_uid", `
SELECT id, firebase_uid, email, username, created_at
  FROM users
 WHERE firebase_uid = $1
 ORDER BY id
 LIMIT 1
`, firebaseUID).Scan(&row.ID, &row.FirebaseUID, &row.Email, &row.Username, &row.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	if err != nil {
		return users.User{}, err
	}
	return row.toDomain(), nil
}

// Create inserts a user. A unique violation on firebase_uid is reported as
// users.ErrAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, params users.NewUser) (users.User, error) {
	row := userRow{
		FirebaseUID: params.FirebaseUID,
		Email:       params.Email,
		Username:    params.Username,
	}
	err := r.db.QueryRow(ctx, "create_user", `
INSERT INTO users (firebase_uid, email, username)
VALUES ($1, $2, $3)
RETURNING id, created_at
`, params.FirebaseUID, params.Email, params.Username).Scan(&row.ID, &row.CreatedAt)
	if storage.IsUniqueViolation(err) {
		return users.User{}, users.ErrAlreadyExists
	}
	if err != nil {
		return users.User{}, err
	}
	return row.toDomain(), nil
}
