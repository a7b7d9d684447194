package ids

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidID = errors.New("invalid id")

// Parse reads a decimal row id. Only positive values are valid since every
// table uses a bigserial key.
func Parse(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// Format is the inverse of Parse.
func Format(id int64) string {
	return strconv.FormatInt(id, 10)
}
