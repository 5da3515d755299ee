package execution

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/charleschow/sfbuy/internal/clock"
	"github.com/charleschow/sfbuy/internal/core/market"
	"github.com/charleschow/sfbuy/internal/events"
	"github.com/charleschow/sfbuy/internal/telemetry"
)

// Outcome is one order's full lifecycle: what was asked for, what the
// market created, and how polling ended.
type Outcome struct {
	Spec   market.OrderSpec
	Placed *market.Order
	Poll   PollResult
}

// Final is the best known view of the order: the last poll, falling back
// to the order as placed.
func (o Outcome) Final() *market.Order {
	if o.Poll.Order != nil {
		return o.Poll.Order
	}
	return o.Placed
}

// Executor runs submit-then-poll for one or many orders and publishes
// lifecycle events on the bus.
type Executor struct {
	submitter *Submitter
	poller    *Poller
	bus       *events.Bus
	clock     clock.Clock
	limit     int
}

func NewExecutor(submitter *Submitter, poller *Poller, bus *events.Bus, clk clock.Clock, limit int) *Executor {
	if limit < 1 {
		limit = 1
	}
	return &Executor{submitter: submitter, poller: poller, bus: bus, clock: clk, limit: limit}
}

// Execute submits spec and waits for it to leave pending.
func (e *Executor) Execute(ctx context.Context, spec market.OrderSpec) (Outcome, error) {
	return e.track(ctx, spec, false)
}

// ExecuteAll runs every spec with at most limit lifecycles in flight and
// waits for all of them. Outcomes keep the order of specs. The first
// submit or poll error cancels the rest and is returned.
func (e *Executor) ExecuteAll(ctx context.Context, specs []market.OrderSpec) ([]Outcome, error) {
	var total int64
	for _, s := range specs {
		total += s.PriceCents
	}
	e.publish(events.EventBatchStarted, events.BatchEvent{Orders: len(specs), TotalCents: total, Split: true})

	outcomes := make([]Outcome, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			out, err := e.track(gctx, spec, true)
			outcomes[i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (e *Executor) track(ctx context.Context, spec market.OrderSpec, batch bool) (Outcome, error) {
	telemetry.Metrics.OrdersInFlight.Inc()
	defer telemetry.Metrics.OrdersInFlight.Dec()

	out := Outcome{Spec: spec}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	placed, err := e.submitter.Submit(ctx, spec)
	if err != nil {
		return out, err
	}
	out.Placed = placed
	e.publish(events.EventOrderSubmitted, events.OrderEvent{OrderID: placed.ID, Spec: spec, Order: placed, Batch: batch})

	res, err := e.poller.Wait(ctx, placed.ID)
	out.Poll = res
	if err != nil {
		return out, err
	}

	evt := events.OrderEvent{OrderID: placed.ID, Spec: spec, Order: out.Final(), Polls: res.Polls, Batch: batch}
	if res.State == GaveUp {
		e.publish(events.EventOrderGaveUp, evt)
	} else {
		e.publish(events.EventOrderResolved, evt)
	}
	return out, nil
}

func (e *Executor) publish(t events.EventType, payload any) {
	e.bus.Publish(events.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: e.clock.Now(),
		Payload:   payload,
	})
}
