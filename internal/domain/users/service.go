package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Togather-Foundation/agenda/internal/domain/validation"
	"github.com/Togather-Foundation/agenda/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ValidationError names the login fields that were missing.
type ValidationError = validation.Error

// Service reconciles identity-provider subjects with local user rows.
type Service struct {
	repo      Repository
	validator *validator.Validate
	logger    zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validation.New(),
		logger:    logger.With().Str("component", "users").Logger(),
	}
}

type loginInput struct {
	FirebaseUID string `json:"firebaseUid" validate:"required"`
	Email       string `json:"email" validate:"required"`
}

// LoginOrRegister returns the user bound to firebaseUID, creating it on the
// first login. When a concurrent login wins the insert, the row it created
// is returned instead.
func (s *Service) LoginOrRegister(ctx context.Context, firebaseUID, email string) (Identity, error) {
	// The uid is the provider's subject and is stored as sent; trimming only
	// decides whether it was supplied at all.
	check := loginInput{
		FirebaseUID: strings.TrimSpace(firebaseUID),
		Email:       strings.TrimSpace(email),
	}
	if err := validation.Struct(s.validator, check); err != nil {
		return Identity{}, err
	}
	input := loginInput{FirebaseUID: firebaseUID, Email: check.Email}

	existing, err := s.repo.FindByFirebaseUID(ctx, input.FirebaseUID)
	switch {
	case err == nil:
		metrics.RecordLogin(metrics.LoginFound)
		return identityOf(existing), nil
	case !errors.Is(err, ErrNotFound):
		metrics.RecordLogin(metrics.LoginFailed)
		return Identity{}, fmt.Errorf("find user: %w", err)
	}

	created, err := s.repo.Create(ctx, NewUser{
		FirebaseUID: input.FirebaseUID,
		Email:       input.Email,
		Username:    DeriveUsername(input.Email),
	})
	if err == nil {
		metrics.RecordLogin(metrics.LoginCreated)
		zerolog.Ctx(ctx).Info().
			Int64("user_id", created.ID).
			Str("username", created.Username).
			Msg("registered user")
		return identityOf(created), nil
	}
	if !errors.Is(err, ErrAlreadyExists) {
		metrics.RecordLogin(metrics.LoginFailed)
		return Identity{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Debug().Str("firebase_uid", input.FirebaseUID).Msg("concurrent registration, re-reading user")
	winner, err := s.repo.FindByFirebaseUID(ctx, input.FirebaseUID)
	if err != nil {
		metrics.RecordLogin(metrics.LoginFailed)
		return Identity{}, fmt.Errorf("re-read user after conflict: %w", err)
	}
	metrics.RecordLogin(metrics.LoginRaceLost)
	return identityOf(winner), nil
}

// DeriveUsername returns the local part of email: everything before the
// first "@", or the whole string when there is none.
func DeriveUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func identityOf(u User) Identity {
	return Identity{ID: u.ID, Username: u.Username}
}
