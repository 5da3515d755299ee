package execution

import (
	"context"
	"time"

	"github.com/charleschow/sfbuy/internal/clock"
	"github.com/charleschow/sfbuy/internal/core/market"
	"github.com/charleschow/sfbuy/internal/telemetry"
)

type PollState int

const (
	Pending PollState = iota
	Resolved
	GaveUp
)

func (s PollState) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case GaveUp:
		return "gave_up"
	default:
		return "pending"
	}
}

// PollResult is the terminal state of one Wait. Order is the last order
// seen; it may be nil on GaveUp.
type PollResult struct {
	State PollState
	Order *market.Order
	Polls int
}

// Poller waits for an order to leave pending: a fixed interval between
// polls, a fixed budget of polls, no backoff.
type Poller struct {
	fetcher  OrderFetcher
	clock    clock.Clock
	interval time.Duration
	budget   int
}

func NewPoller(fetcher OrderFetcher, clk clock.Clock, interval time.Duration, budget int) *Poller {
	return &Poller{fetcher: fetcher, clock: clk, interval: interval, budget: budget}
}

// Wait polls id until its status is not pending or the budget is spent.
// An unknown order (nil) counts as pending. A fetch error ends the wait.
func (p *Poller) Wait(ctx context.Context, id string) (PollResult, error) {
	started := p.clock.Now()
	res := PollResult{State: Pending}

	for res.Polls < p.budget {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		order, err := p.fetcher.GetOrder(ctx, id)
		res.Polls++
		telemetry.Metrics.PollTicks.Inc()
		if err != nil {
			return res, err
		}
		if order != nil {
			res.Order = order
			if order.Status != market.StatusPending {
				res.State = Resolved
				telemetry.Metrics.FillLatency.Record(p.clock.Now().Sub(started))
				telemetry.Infof("execution: order %s %s after %d polls", id, order.Status, res.Polls)
				return res, nil
			}
		}

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-p.clock.After(p.interval):
		}
	}

	res.State = GaveUp
	telemetry.Metrics.PollTimeouts.Inc()
	telemetry.Warnf("execution: order %s still pending after %d polls", id, res.Polls)
	return res, nil
}
