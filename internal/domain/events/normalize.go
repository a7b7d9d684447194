package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/Togather-Foundation/agenda/internal/domain/validation"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var clockLayouts = []string{ClockLayout, "15:04:05"}

// ParseDate parses a YYYY-MM-DD calendar date into midnight UTC.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, validation.Invalid("date", "date must be YYYY-MM-DD")
	}
	return parsed, nil
}

// ParseClock parses HH:MM or HH:MM:SS into an offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	for _, layout := range clockLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return time.Duration(parsed.Hour())*time.Hour +
			time.Duration(parsed.Minute())*time.Minute +
			time.Duration(parsed.Second())*time.Second, nil
	}
	return 0, validation.Invalid("time", "time must be HH:MM")
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatClock renders an offset from midnight as HH:MM, dropping seconds.
func FormatClock(d time.Duration) string {
	d = d.Truncate(time.Minute)
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
