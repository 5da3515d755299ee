package market_http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charleschow/sfbuy/internal/core/market"
	"github.com/charleschow/sfbuy/internal/telemetry"
)

const ordersPath = "/v0/orders"

// CreateOrderRequest is the payload for POST /v0/orders.
type CreateOrderRequest struct {
	Side         string `json:"side"`
	InstanceType string `json:"instance_type"`
	Quantity     int    `json:"quantity"`
	StartAt      string `json:"start_at"` // "NOW" or ISO-8601
	EndAt        string `json:"end_at"`
	Price        int64  `json:"price"` // cents, total
}

func (c *Client) PlaceOrder(ctx context.Context, req CreateOrderRequest) (*market.Order, error) {
	const op = "place order"

	body, status, err := c.Post(ctx, op, ordersPath, req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(op, status, body); err != nil {
		return nil, err
	}

	var order market.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, malformed(op, "%v", err)
	}
	if order.ID == "" {
		return nil, malformed(op, "order id missing")
	}

	telemetry.Infof("market: order placed type=%s quantity=%d start=%s end=%s price=%d -> %s",
		req.InstanceType, req.Quantity, req.StartAt, req.EndAt, req.Price, order.ID)
	return &order, nil
}

// GetOrder fetches one order. An order the market does not know yet
// (404) is reported as (nil, nil) so pollers keep waiting.
func (c *Client) GetOrder(ctx context.Context, id string) (*market.Order, error) {
	const op = "get order"

	body, status, err := c.Get(ctx, op, ordersPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(op, status, body); err != nil {
		return nil, err
	}

	var order market.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, malformed(op, "%v", err)
	}
	if order.ID == "" {
		return nil, malformed(op, "order id missing")
	}
	return &order, nil
}

type ListOrdersParams struct {
	Side          string
	OnlyOpen      bool
	IncludePublic bool
}

type listOrdersResponse struct {
	Data []market.Order `json:"data"`
}

func (c *Client) ListOrders(ctx context.Context, p ListOrdersParams) ([]market.Order, error) {
	const op = "list orders"

	q := url.Values{}
	if p.Side != "" {
		q.Set("side", p.Side)
	}
	q.Set("only_open", strconv.FormatBool(p.OnlyOpen))
	q.Set("include_public", strconv.FormatBool(p.IncludePublic))

	body, status, err := c.Get(ctx, op, ordersPath, q)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(op, status, body); err != nil {
		return nil, err
	}

	var resp listOrdersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, malformed(op, "%v", err)
	}
	return resp.Data, nil
}
