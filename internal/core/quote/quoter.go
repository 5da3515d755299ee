package quote

import (
	"context"
	"fmt"

	"github.com/charleschow/sfbuy/internal/adapters/outbound/market_http"
	"github.com/charleschow/sfbuy/internal/clock"
	"github.com/charleschow/sfbuy/internal/core/market"
	"github.com/charleschow/sfbuy/internal/telemetry"
)

// Source is satisfied by *market_http.Client.
type Source interface {
	GetQuote(ctx context.Context, params market_http.QuoteParams) (*market.Quote, error)
}

var _ Source = (*market_http.Client)(nil)

type Request struct {
	InstanceType    string
	Quantity        int // nodes
	Start           market.Start
	DurationSeconds int64
}

// Quoter asks the market for its best price and window. One call per Quote;
// a (nil, nil) result means nobody is selling and is not retried.
type Quoter struct {
	source Source
	clock  clock.Clock
}

func NewQuoter(source Source, clk clock.Clock) *Quoter {
	return &Quoter{source: source, clock: clk}
}

func (q *Quoter) Quote(ctx context.Context, req Request) (*market.Quote, error) {
	telemetry.Metrics.QuotesRequested.Inc()

	quote, err := q.source.GetQuote(ctx, market_http.QuoteParams{
		Side:            market.SideBuy,
		InstanceType:    req.InstanceType,
		Quantity:        req.Quantity,
		DurationSeconds: req.DurationSeconds,
		MinStart:        req.Start,
		MaxStart:        req.Start,
	})
	if err != nil {
		return nil, err
	}
	if quote == nil {
		telemetry.Metrics.NoLiquidity.Inc()
		telemetry.Infof("quote: no liquidity type=%s quantity=%d duration=%ds start=%s",
			req.InstanceType, req.Quantity, req.DurationSeconds, req.Start)
		return nil, nil
	}

	if start := quote.StartAt.Resolve(q.clock.Now()); !quote.EndAt.After(start) {
		return nil, &market_http.APIError{
			Op:      "get quote",
			Kind:    market_http.KindMalformed,
			Message: fmt.Sprintf("quote ends at %s, not after its start %s", market.WireTime(quote.EndAt), quote.StartAt),
		}
	}

	telemetry.Infof("quote: type=%s quantity=%d %s -> %s price=%d",
		req.InstanceType, req.Quantity, quote.StartAt, market.WireTime(quote.EndAt), quote.Price)
	return quote, nil
}
