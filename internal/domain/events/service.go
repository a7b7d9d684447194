package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/Togather-Foundation/agenda/internal/domain/validation"
	"github.com/Togather-Foundation/agenda/internal/metrics"
	"github.com/Togather-Foundation/agenda/internal/sanitize"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ValidationError names the event fields that were missing or malformed.
type ValidationError = validation.Error

type Service struct {
	repo      Repository
	validator *validator.Validate
	logger    zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validation.New(),
		logger:    logger.With().Str("component", "events").Logger(),
	}
}

type CreateParams struct {
	UserID      int64   `json:"userId" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Date        string  `json:"date" validate:"required"`
	Time        string  `json:"time" validate:"required"`
	Description *string `json:"description"`
	Link        *string `json:"link"`
}

// UpdateParams replaces every mutable field; a nil Description or Link
// clears the stored value.
type UpdateParams struct {
	Title       string  `json:"title" validate:"required"`
	Date        string  `json:"date" validate:"required"`
	Time        string  `json:"time" validate:"required"`
	Description *string `json:"description"`
	Link        *string `json:"link"`
}

func (s *Service) List(ctx context.Context, userID int64) ([]Event, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		record("list", err)
		return nil, fmt.Errorf("list events: %w", err)
	}
	record("list", nil)
	if items == nil {
		items = []Event{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Event, error) {
	event, err := s.repo.Get(ctx, id)
	record("get", err)
	if err != nil {
		return Event{}, fmt.Errorf("get event %d: %w", id, err)
	}
	return event, nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (int64, error) {
	params.Title = sanitize.Text(params.Title)
	if err := validation.Struct(s.validator, params); err != nil {
		record("create", err)
		return 0, err
	}
	fields, err := normalizeFields(params.Title, params.Date, params.Time, params.Description, params.Link)
	if err != nil {
		record("create", err)
		return 0, err
	}

	id, err := s.repo.Create(ctx, params.UserID, fields)
	record("create", err)
	if err != nil {
		return 0, fmt.Errorf("create event: %w", err)
	}
	s.logger.Debug().Int64("event_id", id).Int64("user_id", params.UserID).Msg("event created")
	return id, nil
}

func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) error {
	params.Title = sanitize.Text(params.Title)
	if err := validation.Struct(s.validator, params); err != nil {
		record("update", err)
		return err
	}
	fields, err := normalizeFields(params.Title, params.Date, params.Time, params.Description, params.Link)
	if err != nil {
		record("update", err)
		return err
	}

	err = s.repo.Update(ctx, id, fields)
	record("update", err)
	if err != nil {
		return fmt.Errorf("update event %d: %w", id, err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	record("delete", err)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	s.logger.Debug().Int64("event_id", id).Msg("event deleted")
	return nil
}

func normalizeFields(title, date, clock string, description, link *string) (Fields, error) {
	day, err := ParseDate(date)
	if err != nil {
		return Fields{}, err
	}
	at, err := ParseClock(clock)
	if err != nil {
		return Fields{}, err
	}
	return Fields{
		Title:       title,
		Date:        day,
		Time:        at,
		Description: sanitize.OptionalText(description),
		Link:        sanitize.OptionalText(link),
	}, nil
}

func record(operation string, err error) {
	var vErr *ValidationError
	outcome := "ok"
	switch {
	case err == nil:
	case errors.As(err, &vErr):
		outcome = "invalid"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.RecordEventOperation(operation, outcome)
}
