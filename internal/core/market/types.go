package market

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// GPUsPerNode is the smallest purchasable unit: orders are placed in whole nodes.
	GPUsPerNode = 8

	// BillingGrid is the granularity start and end instants are aligned to.
	BillingGrid = time.Minute

	SideBuy  = "buy"
	SideSell = "sell"

	// NowSentinel is the wire value meaning "as soon as possible".
	NowSentinel = "NOW"

	wireLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Start is either a concrete instant or the NOW sentinel. The zero value is NOW.
type Start struct {
	at time.Time
}

func Now() Start { return Start{} }

func At(t time.Time) Start { return Start{at: t} }

func (s Start) IsNow() bool { return s.at.IsZero() }

// Time returns the concrete instant, or the zero time for NOW.
func (s Start) Time() time.Time { return s.at }

// Resolve returns the concrete instant, substituting now for the NOW sentinel.
func (s Start) Resolve(now time.Time) time.Time {
	if s.IsNow() {
		return now
	}
	return s.at
}

// Wire renders the value the remote API expects: "NOW" or an ISO-8601 UTC instant.
func (s Start) Wire() string {
	if s.IsNow() {
		return NowSentinel
	}
	return WireTime(s.at)
}

func (s Start) String() string { return s.Wire() }

func (s Start) Equal(o Start) bool {
	if s.IsNow() || o.IsNow() {
		return s.IsNow() == o.IsNow()
	}
	return s.at.Equal(o.at)
}

func (s Start) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Wire())
}

func (s *Start) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if strings.EqualFold(raw, NowSentinel) {
		*s = Now()
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	*s = At(t)
	return nil
}

// WireTime formats t the way the API emits instants (millisecond precision, UTC).
func WireTime(t time.Time) string {
	return t.UTC().Format(wireLayout)
}

// Window is a requested or quoted time range.
type Window struct {
	Start Start
	End   time.Time
}

// Seconds is the window length rounded to whole seconds, with NOW resolved against now.
func (w Window) Seconds(now time.Time) int64 {
	d := w.End.Sub(w.Start.Resolve(now))
	return int64(math.Round(d.Seconds()))
}

// OrderSpec is one order as it will be submitted.
type OrderSpec struct {
	InstanceType string
	Quantity     int   // nodes
	PriceCents   int64 // total for the whole window and quantity
	Window       Window
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusOpen      OrderStatus = "open"
	StatusFilled    OrderStatus = "filled"
	StatusCancelled OrderStatus = "cancelled"
	StatusRejected  OrderStatus = "rejected"
)

// Order is the market's view of a submitted order. Owned by the remote side;
// this process only reads it.
type Order struct {
	ID           string      `json:"id"`
	Side         string      `json:"side"`
	Status       OrderStatus `json:"status"`
	InstanceType string      `json:"instance_type"`
	Quantity     int         `json:"quantity"`
	Price        int64       `json:"price"`
	StartAt      Start       `json:"start_at"`
	EndAt        time.Time   `json:"end_at"`
}

// Quote is the market's best available price and window for a request.
type Quote struct {
	InstanceType string    `json:"instance_type"`
	Quantity     int       `json:"quantity"`
	Price        int64     `json:"price"` // total cents
	StartAt      Start     `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
}

func (q Quote) Window() Window {
	return Window{Start: q.StartAt, End: q.EndAt}
}
