package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charleschow/sfbuy/internal/core/market"
)

var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidStart    = errors.New("invalid start date")
	ErrInvalidPrice    = errors.New("invalid price")
)

var durationUnits = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "wk": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}

// maxDurationSeconds is the longest whole-second span a time.Duration holds.
const maxDurationSeconds = float64(math.MaxInt64 / int64(time.Second))

// ParseDuration accepts compound human durations such as "1h", "2d", "1h30m",
// "1.5 hours" or "90 min". A bare number is read as seconds. The result is
// rounded to whole seconds and must be at least one second.
func ParseDuration(s string) (time.Duration, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	var seconds float64
	for in != "" {
		i := 0
		for i < len(in) && (in[i] >= '0' && in[i] <= '9' || in[i] == '.') {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		n, err := strconv.ParseFloat(in[:i], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		in = strings.TrimLeft(in[i:], " ")

		j := 0
		for j < len(in) && in[j] >= 'a' && in[j] <= 'z' {
			j++
		}
		unit := in[:j]
		if unit == "" {
			unit = "s"
		}
		mult, ok := durationUnits[unit]
		if !ok {
			return 0, fmt.Errorf("%w: unknown unit %q in %q", ErrInvalidDuration, unit, s)
		}
		seconds += n * mult.Seconds()
		in = strings.TrimLeft(in[j:], " ,")
	}

	rounded := math.Round(seconds)
	if rounded < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	if rounded > maxDurationSeconds {
		return 0, fmt.Errorf("%w: %q is too long", ErrInvalidDuration, s)
	}
	return time.Duration(rounded) * time.Second, nil
}

// Window builds the requested window: start (NOW resolved to now) plus d.
func Window(start market.Start, d time.Duration, now time.Time) market.Window {
	return market.Window{Start: start, End: start.Resolve(now).Add(d)}
}
