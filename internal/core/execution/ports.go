package execution

import (
	"context"

	"github.com/charleschow/sfbuy/internal/adapters/outbound/market_http"
	"github.com/charleschow/sfbuy/internal/core/market"
)

var (
	_ OrderPlacer  = (*market_http.Client)(nil)
	_ OrderFetcher = (*market_http.Client)(nil)
)

// OrderPlacer abstracts the ability to place orders on the market.
// Satisfied by *market_http.Client.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req market_http.CreateOrderRequest) (*market.Order, error)
}

// OrderFetcher reads back a placed order. A (nil, nil) result means the
// market does not know the order yet.
type OrderFetcher interface {
	GetOrder(ctx context.Context, id string) (*market.Order, error)
}
