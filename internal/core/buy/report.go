package buy

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charleschow/sfbuy/internal/adapters/outbound/market_http"
	"github.com/charleschow/sfbuy/internal/clock"
	"github.com/charleschow/sfbuy/internal/core/units"
	"github.com/charleschow/sfbuy/internal/events"
)

// Reporter writes user-facing output: progress while orders are in flight,
// then guidance for the final result or error.
type Reporter struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	format units.Formatter
	clock  clock.Clock
}

func NewReporter(out, errOut io.Writer, format units.Formatter, clk clock.Clock) *Reporter {
	return &Reporter{out: out, errOut: errOut, format: format, clock: clk}
}

// Subscribe prints order progress from the bus. Per-order lines are only
// printed outside a batch; a batch gets one header line.
func (r *Reporter) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventBatchStarted, func(e events.Event) error {
		b, ok := e.Payload.(events.BatchEvent)
		if !ok {
			return nil
		}
		r.printf(r.out, "Placing %d orders...\n", b.Orders)
		return nil
	})
	bus.Subscribe(events.EventOrderSubmitted, r.onOrder(func(oe events.OrderEvent) {
		r.printf(r.out, "Order %s - pending (this can take a moment)\n", oe.OrderID)
	}))
	bus.Subscribe(events.EventOrderResolved, r.onOrder(func(oe events.OrderEvent) {
		r.printf(r.out, "Order %s - %s\nOrder placed successfully\n", oe.OrderID, oe.Order.Status)
	}))
	bus.Subscribe(events.EventOrderGaveUp, r.onOrder(func(oe events.OrderEvent) {
		r.printf(r.errOut, "Order %s - possibly failed\n", oe.OrderID)
	}))
}

func (r *Reporter) onOrder(fn func(events.OrderEvent)) events.Handler {
	return func(e events.Event) error {
		oe, ok := e.Payload.(events.OrderEvent)
		if !ok || oe.Batch {
			return nil
		}
		fn(oe)
		return nil
	}
}

func (r *Reporter) printf(w io.Writer, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(w, format, args...)
}

// Result renders a finished run.
func (r *Reporter) Result(res *Result) {
	if res == nil {
		return
	}
	switch res.Mode {
	case ModeQuote:
		r.quote(res)
	case ModeSingle:
		r.single(res)
	case ModeSplit:
		r.split(res.Summary)
	}
}

func (r *Reporter) quote(res *Result) {
	q := res.Quote
	now := r.clock.Now()
	seconds := q.Window().Seconds(now)
	r.printf(r.out, "Found availability from %s to %s (%s) at %s total (%s/GPU-hour)\n",
		r.format.Start(q.StartAt),
		r.format.Instant(q.EndAt),
		r.format.Duration(time.Duration(seconds)*time.Second),
		r.format.Dollars(q.Price),
		r.format.DollarsDecimal(units.PerGPUHour(q.Price, res.Nodes, seconds)),
	)
}

func (r *Reporter) single(res *Result) {
	order := res.Single.Final()
	switch res.Class {
	case ClassStartingSoon:
		r.printf(r.out, "Your nodes are currently spinning up. Once they're online, you can view them using:\n\n  sf instances ls\n\n")
	case ClassStartingLater:
		now := r.clock.Now()
		r.printf(r.out, "Your contract begins %s. You can view more details using:\n\n  sf contracts ls\n\n",
			r.format.Relative(order.StartAt.Resolve(now), now))
	case ClassStillOpen:
		r.printf(r.out, "Your order wasn't accepted yet. You can check its status with:\n\n  sf orders ls\n\nIf you want to cancel the order, you can do so with:\n\n  sf orders cancel %s\n\n", order.ID)
	case ClassPossiblyFailed:
		r.printf(r.errOut, "It may still be accepted later. Check the status of %s with:\n\n  sf orders ls\n\n", res.Single.Placed.ID)
	default:
		r.printf(r.errOut, "Order likely did not execute. Check the status with:\n\n  sf orders ls\n\n")
	}
}

func (r *Reporter) split(s SplitSummary) {
	if s.Filled > 0 {
		r.printf(r.out, "Successfully placed and filled %d orders.\n", s.Filled)
	}
	if s.Open > 0 {
		r.printf(r.out, "%d orders are still open. You can check their status with:\n\n  sf orders ls\n\nIf you want to cancel the orders, you can do so with:\n\n  sf orders cancel [order_id]\n\n", s.Open)
	}
	if s.Pending > 0 {
		r.printf(r.errOut, "%d orders were still pending when we stopped checking and possibly failed. Check them with:\n\n  sf orders ls\n\n", s.Pending)
	}
	if s.Other > 0 {
		r.printf(r.errOut, "%d orders likely did not execute.\n", s.Other)
	}
	if s.Unsent > 0 {
		r.printf(r.errOut, "%d orders were not placed.\n", s.Unsent)
	}
}

// Error renders err with the guidance a user needs to act on it.
func (r *Reporter) Error(err error) {
	var noLiq *NoLiquidityError
	var apiErr *market_http.APIError
	switch {
	case errors.As(err, &noLiq) && !noLiq.QuoteOnly:
		r.printf(r.out, "No one is selling this right now. To ask someone to sell it to you, add a price you're willing to pay. For example:\n\n  %s\n\n", noLiq.ExampleCommand())
	case errors.Is(err, market_http.ErrNotLoggedIn):
		r.printf(r.errOut, "You need to login first.\n\n  $ sf login\n\n")
	case errors.As(err, &apiErr) && apiErr.Kind == market_http.KindUnauthorized:
		r.printf(r.errOut, "Your session has expired. Please login again.\n\n  $ sf login\n\n")
	default:
		r.printf(r.errOut, "%v\n", err)
	}
}
