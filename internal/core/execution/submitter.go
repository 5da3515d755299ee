package execution

import (
	"context"
	"fmt"

	"github.com/charleschow/sfbuy/internal/adapters/outbound/market_http"
	"github.com/charleschow/sfbuy/internal/core/billing"
	"github.com/charleschow/sfbuy/internal/core/market"
	"github.com/charleschow/sfbuy/internal/telemetry"
)

// Submitter sends one order per call. It never retries.
type Submitter struct {
	placer  OrderPlacer
	rounder *billing.Rounder
	spend   *SpendGuard
}

func NewSubmitter(placer OrderPlacer, rounder *billing.Rounder, spend *SpendGuard) *Submitter {
	return &Submitter{placer: placer, rounder: rounder, spend: spend}
}

// Submit re-rounds the start against the current clock, since a confirmation
// prompt may have sat open past the rounded boundary, then places the order.
func (s *Submitter) Submit(ctx context.Context, spec market.OrderSpec) (*market.Order, error) {
	start := s.rounder.RoundStart(spec.Window.Start)

	if !s.spend.Reserve(spec.PriceCents) {
		telemetry.Warnf("execution: spend cap reached spent=%d order=%d limit=%d",
			s.spend.TotalSpent(), spec.PriceCents, s.spend.MaxCents())
		return nil, fmt.Errorf("%w: %d cents", ErrSpendCap, spec.PriceCents)
	}

	order, err := s.placer.PlaceOrder(ctx, market_http.CreateOrderRequest{
		Side:         market.SideBuy,
		InstanceType: spec.InstanceType,
		Quantity:     spec.Quantity,
		StartAt:      start.Wire(),
		EndAt:        market.WireTime(spec.Window.End),
		Price:        spec.PriceCents,
	})
	if err != nil {
		s.spend.Release(spec.PriceCents)
		telemetry.Metrics.OrderErrors.Inc()
		telemetry.Errorf("execution: order failed type=%s start=%s: %v", spec.InstanceType, start, err)
		return nil, err
	}

	telemetry.Metrics.OrdersSent.Inc()
	return order, nil
}
