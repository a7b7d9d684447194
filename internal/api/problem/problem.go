package problem

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/json; charset=utf-8"

// Client-facing titles.
const (
	TitleMissingFields   = "Missing required fields"
	TitleEventNotFound   = "Event not found"
	TitleRouteNotFound   = "Route not found"
	TitleInternal        = "Something went wrong!"
	TitleUnauthorized    = "Unauthorized"
	TitleTooManyRequests = "Too many requests"
	TitleBodyTooLarge    = "Request body too large"
	TitleInvalidBody     = "Invalid request body"
	TitleInvalidField    = "Invalid field value"
)

// Body is the error envelope every failing route returns.
type Body struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

type Option func(*Body)

func WithMessage(message string) Option {
	return func(b *Body) {
		b.Message = message
	}
}

func WithFields(fields []string) Option {
	return func(b *Body) {
		b.Fields = fields
	}
}

// Write logs err and writes the envelope. For 5xx responses the message is
// err's text only in development and test; elsewhere it is the generic
// status text. 4xx messages come from options only.
func Write(w http.ResponseWriter, r *http.Request, status int, title string, err error, env string, opts ...Option) {
	body := Body{Error: title}
	for _, opt := range opts {
		opt(&body)
	}

	if body.Message == "" && err != nil && status >= 500 {
		if exposeDetail(env) {
			body.Message = err.Error()
		} else {
			body.Message = http.StatusText(status)
		}
	}

	if err != nil && r != nil {
		logger := zerolog.Ctx(r.Context())
		var event *zerolog.Event
		if status >= 500 {
			event = logger.Error()
		} else {
			event = logger.Warn()
		}
		event.
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(title)
	}

	WriteBody(w, status, body)
}

// WriteBody encodes body with status without logging.
func WriteBody(w http.ResponseWriter, status int, body Body) {
	payload, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"` + TitleInternal + `"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func exposeDetail(env string) bool {
	return env == "development" || env == "test"
}
