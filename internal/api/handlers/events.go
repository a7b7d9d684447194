package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Togather-Foundation/agenda/internal/api/problem"
	"github.com/Togather-Foundation/agenda/internal/domain/events"
	"github.com/Togather-Foundation/agenda/internal/domain/ids"
)

type EventsService interface {
	List(ctx context.Context, userID int64) ([]events.Event, error)
	Get(ctx context.Context, id int64) (events.Event, error)
	Create(ctx context.Context, params events.CreateParams) (int64, error)
	Update(ctx context.Context, id int64, params events.UpdateParams) error
	Delete(ctx context.Context, id int64) error
}

type EventsHandler struct {
	Service EventsService
	Env     string
}

func NewEventsHandler(service EventsService, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type eventResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Title       string  `json:"title"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Description *string `json:"description"`
	Link        *string `json:"link"`
}

func toEventResponse(e events.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		Date:        e.DateString(),
		Time:        e.TimeString(),
		Description: e.Description,
		Link:        e.Link,
	}
}

type eventRequest struct {
	UserID      flexibleID `json:"userId"`
	Title       string     `json:"title"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Description *string    `json:"description"`
	Link        *string    `json:"link"`
}

type createdResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type changedResponse struct {
	Message string `json:"message"`
	EventID int64  `json:"eventId"`
}

// List answers GET /events?userId=N. A missing or malformed userId matches
// no rows and yields an empty array.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := ids.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		writeJSON(w, http.StatusOK, []eventResponse{})
		return
	}

	items, err := h.Service.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]eventResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toEventResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	event, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// Create answers 200, not 201, to match existing clients.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}
	if req.UserID.Invalid {
		h.writeError(w, r, invalidUserID)
		return
	}

	id, err := h.Service.Create(r.Context(), events.CreateParams{
		UserID:      req.UserID.Value,
		Title:       req.Title,
		Date:        req.Date,
		Time:        req.Time,
		Description: req.Description,
		Link:        req.Link,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{ID: id, Message: "Event created successfully"})
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	err := h.Service.Update(r.Context(), id, events.UpdateParams{
		Title:       req.Title,
		Date:        req.Date,
		Time:        req.Time,
		Description: req.Description,
		Link:        req.Link,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changedResponse{Message: "Event updated successfully", EventID: id})
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changedResponse{Message: "Event deleted successfully", EventID: id})
}

// eventID parses {id}. A malformed id cannot name a row, so it is a 404.
func (h *EventsHandler) eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := ids.Parse(pathParam(r, "id"))
	if err != nil {
		problem.Write(w, r, http.StatusNotFound, problem.TitleEventNotFound, err, h.Env)
		return 0, false
	}
	return id, true
}

func (h *EventsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if writeValidationError(w, r, err, h.Env) {
		return
	}
	if errors.Is(err, events.ErrNotFound) {
		problem.Write(w, r, http.StatusNotFound, problem.TitleEventNotFound, err, h.Env)
		return
	}
	problem.Write(w, r, http.StatusInternalServerError, problem.TitleInternal, err, h.Env)
}
