package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/charleschow/sfbuy/internal/clock"
	"github.com/charleschow/sfbuy/internal/core/market"
)

// ErrEmptyWindow is returned when a rounded window does not end after it starts.
var ErrEmptyWindow = errors.New("window ends before it starts")

// Rounder aligns windows to the provider's billing grid and prorates the
// price so the effective per-second rate is unchanged.
type Rounder struct {
	grid  time.Duration
	clock clock.Clock
}

func NewRounder(grid time.Duration, clk clock.Clock) *Rounder {
	return &Rounder{grid: grid, clock: clk}
}

// RoundStart moves a concrete start up to the next grid boundary, never
// earlier than the current instant. NOW is returned unchanged.
func (r *Rounder) RoundStart(s market.Start) market.Start {
	if s.IsNow() {
		return s
	}
	t := s.Time()
	if now := r.clock.Now(); t.Before(now) {
		t = now
	}
	return market.At(ceil(t, r.grid))
}

func (r *Rounder) RoundEnd(t time.Time) time.Time {
	return ceil(t, r.grid)
}

// Round snaps both ends of w and reprices using the rate implied by
// priceCents over origSeconds. A window that is empty once rounded
// returns ErrEmptyWindow.
func (r *Rounder) Round(w market.Window, priceCents, origSeconds int64) (market.Window, int64, error) {
	rounded := market.Window{
		Start: r.RoundStart(w.Start),
		End:   r.RoundEnd(w.End),
	}
	secs := rounded.Seconds(r.clock.Now())
	if secs <= 0 {
		return rounded, 0, fmt.Errorf("%w: %s to %s", ErrEmptyWindow, rounded.Start, market.WireTime(rounded.End))
	}
	return rounded, Prorate(priceCents, origSeconds, secs), nil
}

// Prorate returns round(priceCents / fromSeconds * toSeconds) with banker's
// rounding. The division is carried exactly so equal durations return the
// input price unchanged.
func Prorate(priceCents, fromSeconds, toSeconds int64) int64 {
	if fromSeconds <= 0 || fromSeconds == toSeconds {
		return priceCents
	}
	return decimal.NewFromInt(priceCents).
		Mul(decimal.NewFromInt(toSeconds)).
		Div(decimal.NewFromInt(fromSeconds)).
		RoundBank(0).
		IntPart()
}

func ceil(t time.Time, grid time.Duration) time.Time {
	floor := t.Truncate(grid)
	if floor.Equal(t) {
		return t
	}
	return floor.Add(grid)
}
