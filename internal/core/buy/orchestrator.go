// Package buy turns one buy command into orders on the market: it parses
// the request, quotes when it has to, rounds or splits the window, asks
// for confirmation, then submits and waits for every order.
package buy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charleschow/sfbuy/internal/clock"
	"github.com/charleschow/sfbuy/internal/core/billing"
	"github.com/charleschow/sfbuy/internal/core/execution"
	"github.com/charleschow/sfbuy/internal/core/market"
	"github.com/charleschow/sfbuy/internal/core/quote"
	"github.com/charleschow/sfbuy/internal/core/split"
	"github.com/charleschow/sfbuy/internal/core/units"
	"github.com/charleschow/sfbuy/internal/telemetry"
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

type Mode int

const (
	ModeQuote Mode = iota + 1
	ModeSingle
	ModeSplit
)

// Result is what a run did. Which fields are set depends on Mode.
type Result struct {
	Mode         Mode
	InstanceType string
	Nodes        int
	Window       market.Window
	TotalCents   int64
	DidQuote     bool

	// ModeQuote
	Quote *market.Quote

	// ModeSingle
	Single *execution.Outcome
	Class  Class

	// ModeSplit
	Orders  []execution.Outcome
	Summary SplitSummary
}

type Deps struct {
	Quoter    *quote.Quoter
	Rounder   *billing.Rounder
	Executor  *execution.Executor
	Spend     *execution.SpendGuard
	Confirmer Confirmer
	Clock     clock.Clock
	Format    units.Formatter
	Location  *time.Location
}

type Orchestrator struct {
	quoter    *quote.Quoter
	rounder   *billing.Rounder
	executor  *execution.Executor
	spend     *execution.SpendGuard
	confirmer Confirmer
	clock     clock.Clock
	format    units.Formatter
	loc       *time.Location
}

func NewOrchestrator(d Deps) *Orchestrator {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return &Orchestrator{
		quoter:    d.Quoter,
		rounder:   d.Rounder,
		executor:  d.Executor,
		spend:     d.Spend,
		confirmer: d.Confirmer,
		clock:     d.Clock,
		format:    d.Format,
		loc:       loc,
	}
}

// Run executes one buy. Validation failures return a *ValidationError
// before any remote call; a missing seller returns a *NoLiquidityError.
// A partial Result may accompany an execution error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	n, err := o.normalize(req)
	if err != nil {
		return nil, err
	}

	res := &Result{
		InstanceType: n.instanceType,
		Nodes:        n.nodes,
		Window:       n.window,
	}

	if req.QuoteOnly || !n.hasPrice {
		q, err := o.quoter.Quote(ctx, quote.Request{
			InstanceType:    n.instanceType,
			Quantity:        n.nodes,
			Start:           n.start,
			DurationSeconds: n.seconds,
		})
		if err != nil {
			return nil, err
		}
		if q == nil {
			return nil, &NoLiquidityError{
				QuoteOnly:       req.QuoteOnly,
				Accelerators:    n.accelerators,
				DurationSeconds: n.seconds,
			}
		}

		res.Window = q.Window()
		res.TotalCents = q.Price
		res.DidQuote = true
		if req.QuoteOnly {
			res.Mode = ModeQuote
			res.Quote = q
			return res, nil
		}
		// seconds always follow the adopted window
		n.seconds = res.Window.Seconds(o.clock.Now())
	}

	if req.Split {
		return o.runSplit(ctx, n, res)
	}
	return o.runSingle(ctx, n, res)
}

func (o *Orchestrator) normalize(req Request) (normalized, error) {
	now := o.clock.Now()
	n := normalized{
		instanceType: req.InstanceType,
		accelerators: req.Accelerators,
		yes:          req.Yes,
	}
	if n.instanceType == "" {
		n.instanceType = DefaultInstanceType
	}

	if n.accelerators <= 0 || n.accelerators%market.GPUsPerNode != 0 {
		return n, invalid("accelerators", fmt.Errorf(
			"%w: at the moment, only entire-nodes are available, so you must have a multiple of %d GPUs. Example command:\n\n  sf buy -n %d -d %q",
			ErrInvalidAccelerators, market.GPUsPerNode, market.GPUsPerNode, durationOrDefault(req.Duration)))
	}
	n.nodes = n.accelerators / market.GPUsPerNode

	d, err := units.ParseDuration(durationOrDefault(req.Duration))
	if err != nil {
		return n, invalid("duration", err)
	}
	n.seconds = int64(d / time.Second)

	n.start, err = units.ParseStart(req.Start, now, o.loc)
	if err != nil {
		return n, invalid("start", err)
	}

	if strings.TrimSpace(req.Price) != "" {
		n.pricePerGPUHourCents, err = units.ParseDollars(req.Price)
		if err != nil {
			return n, invalid("price", err)
		}
		n.hasPrice = true
	}

	n.window = units.Window(n.start, d, now)
	if !n.window.End.After(now) {
		return n, invalid("start", fmt.Errorf("%w: it ended at %s",
			ErrWindowEnded, o.format.Instant(n.window.End)))
	}

	if req.Split && !req.QuoteOnly {
		if err := split.Validate(n.splitRequest()); err != nil {
			return n, invalid("split", err)
		}
	}
	return n, nil
}

func (n normalized) splitRequest() split.Request {
	return split.Request{
		InstanceType:         n.instanceType,
		Nodes:                n.nodes,
		Start:                n.start,
		DurationSeconds:      n.seconds,
		PricePerGPUHourCents: n.pricePerGPUHourCents,
		HasPrice:             n.hasPrice,
	}
}

func durationOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return DefaultDuration
	}
	return s
}

func (o *Orchestrator) runSplit(ctx context.Context, n normalized, res *Result) (*Result, error) {
	res.Mode = ModeSplit

	sreq := n.splitRequest()
	sreq.Start = o.rounder.RoundStart(n.start)
	specs, err := split.Split(sreq)
	if err != nil {
		return nil, invalid("split", err)
	}
	res.TotalCents = split.TotalCents(specs)
	res.Window = market.Window{Start: sreq.Start, End: sreq.Start.Time().Add(time.Duration(sreq.Hours()) * time.Hour)}

	if err := o.checkSpend(res.TotalCents); err != nil {
		return nil, err
	}
	if err := o.confirm(ctx, n.yes, o.splitMessage(sreq, res)); err != nil {
		return nil, err
	}

	telemetry.Infof("buy: placing %d split orders total=%d", len(specs), res.TotalCents)
	outs, err := o.executor.ExecuteAll(ctx, specs)
	res.Orders = outs
	res.Summary = Summarize(outs)
	if err != nil {
		return res, err
	}
	return res, nil
}

func (o *Orchestrator) runSingle(ctx context.Context, n normalized, res *Result) (*Result, error) {
	res.Mode = ModeSingle

	if !res.DidQuote {
		total := units.TotalCents(n.pricePerGPUHourCents, n.nodes, n.seconds)
		var err error
		res.Window, res.TotalCents, err = o.rounder.Round(n.window, total, n.seconds)
		if err != nil {
			return nil, invalid("start", err)
		}
	}

	if err := o.checkSpend(res.TotalCents); err != nil {
		return nil, err
	}
	if err := o.confirm(ctx, n.yes, o.singleMessage(res)); err != nil {
		return nil, err
	}

	out, err := o.executor.Execute(ctx, market.OrderSpec{
		InstanceType: res.InstanceType,
		Quantity:     res.Nodes,
		PriceCents:   res.TotalCents,
		Window:       res.Window,
	})
	if err != nil {
		return nil, err
	}
	res.Single = &out
	res.Class = Classify(out, o.clock.Now())
	return res, nil
}

func (o *Orchestrator) checkSpend(total int64) error {
	if o.spend.CanSpend(total) {
		return nil
	}
	return invalid("price", fmt.Errorf("%w: total %s is over the %s limit",
		execution.ErrSpendCap, o.format.Dollars(total), o.format.Dollars(o.spend.MaxCents())))
}

func (o *Orchestrator) confirm(ctx context.Context, yes bool, message string) error {
	if yes {
		return nil
	}
	if o.confirmer == nil {
		return ErrConfirmationRequired
	}
	ok, err := o.confirmer.Confirm(ctx, message)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeclined
	}
	return nil
}
