package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/agenda/internal/api/problem"
	"github.com/Togather-Foundation/agenda/internal/domain/ids"
	"github.com/Togather-Foundation/agenda/internal/domain/validation"
)

const jsonContentType = "application/json; charset=utf-8"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// errBodyTooLarge is reported by decodeJSON once http.MaxBytesReader trips.
var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads a single JSON value into dst. An empty body leaves dst at
// its zero value so required-field validation reports what is missing.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &tooLarge):
		return errBodyTooLarge
	default:
		return err
	}
}

// writeDecodeError answers a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	if errors.Is(err, errBodyTooLarge) {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TitleBodyTooLarge, err, env)
		return
	}
	problem.Write(w, r, http.StatusBadRequest, problem.TitleInvalidBody, err, env,
		problem.WithMessage("request body must be a JSON object"))
}

// writeValidationError answers true when err carried field failures.
func writeValidationError(w http.ResponseWriter, r *http.Request, err error, env string) bool {
	var vErr *validation.Error
	if !errors.As(err, &vErr) {
		return false
	}
	title := problem.TitleMissingFields
	message := validation.MissingFieldsMessage
	if vErr.Message != "" && vErr.Message != validation.MissingFieldsMessage {
		title = problem.TitleInvalidField
		message = vErr.Message
	}
	problem.Write(w, r, http.StatusBadRequest, title, err, env,
		problem.WithMessage(message),
		problem.WithFields(vErr.InvalidFields()),
	)
	return true
}

func pathParam(r *http.Request, key string) string {
	return strings.TrimSpace(r.PathValue(key))
}

// flexibleID accepts a user id sent either as a JSON number or as a decimal
// string. Null, an empty string or an absent key leave it unset, which
// validation reports as missing. Any other value marks it invalid.
type flexibleID struct {
	Value   int64
	Invalid bool
}

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*f = flexibleID{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			*f = flexibleID{Invalid: true}
			return nil
		}
		if raw = strings.TrimSpace(unquoted); raw == "" {
			*f = flexibleID{}
			return nil
		}
	}
	id, err := ids.Parse(raw)
	if err != nil {
		*f = flexibleID{Invalid: true}
		return nil
	}
	*f = flexibleID{Value: id}
	return nil
}

// invalidUserID is reported when userId is present but is not a positive
// integer.
var invalidUserID = validation.Invalid("userId", "userId must be a positive integer")
