package units

import (
	"fmt"
	"strings"
	"time"

	"github.com/charleschow/sfbuy/internal/core/market"
)

var startLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 03:04 PM",
	"01/02/2006 3:04 PM",
	"01/02/2006 3:04PM",
	"01/02/2006 15:04",
	"01/02/2006",
}

var clockLayouts = []string{"3pm", "3PM", "3:04pm", "3:04PM", "3:04 pm", "3:04 PM", "15:04"}

// ParseStart resolves a start expression. Accepted forms:
//
//	""  or "now"          NOW sentinel
//	"+1d", "in 2h"        relative to now
//	"tomorrow"            midnight of the next day in loc
//	"3pm", "14:30"        that wall-clock time today in loc
//	ISO-8601 / US dates   absolute instants, interpreted in loc when unzoned
func ParseStart(s string, now time.Time, loc *time.Location) (market.Start, error) {
	in := strings.TrimSpace(s)
	lower := strings.ToLower(in)

	switch {
	case lower == "" || lower == "now":
		return market.Now(), nil
	case strings.HasPrefix(lower, "+"):
		return relativeStart(s, lower[1:], now)
	case strings.HasPrefix(lower, "in "):
		return relativeStart(s, lower[3:], now)
	case lower == "today":
		return market.At(now), nil
	case lower == "tomorrow":
		y, m, d := now.In(loc).Date()
		return market.At(time.Date(y, m, d+1, 0, 0, 0, 0, loc)), nil
	}

	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, in, loc); err == nil {
			return market.At(t), nil
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, in, loc); err == nil {
			y, m, d := now.In(loc).Date()
			return market.At(time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)), nil
		}
	}
	return market.Start{}, fmt.Errorf("%w: %q", ErrInvalidStart, s)
}

func relativeStart(raw, expr string, now time.Time) (market.Start, error) {
	d, err := ParseDuration(expr)
	if err != nil {
		return market.Start{}, fmt.Errorf("%w: %q", ErrInvalidStart, raw)
	}
	return market.At(now.Add(d)), nil
}
