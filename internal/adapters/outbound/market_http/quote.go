package market_http

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/charleschow/sfbuy/internal/core/market"
)

const quotePath = "/v0/quote"

// QuoteParams is the query for GET /v0/quote.
type QuoteParams struct {
	Side            string
	InstanceType    string
	Quantity        int
	DurationSeconds int64
	MinStart        market.Start
	MaxStart        market.Start
}

func (p QuoteParams) values() url.Values {
	q := url.Values{}
	q.Set("side", p.Side)
	q.Set("instance_type", p.InstanceType)
	q.Set("quantity", strconv.Itoa(p.Quantity))
	q.Set("duration", strconv.FormatInt(p.DurationSeconds, 10))
	q.Set("min_start_date", p.MinStart.Wire())
	q.Set("max_start_date", p.MaxStart.Wire())
	return q
}

type quoteResponse struct {
	Quote *market.Quote `json:"quote"`
}

// GetQuote returns (nil, nil) when the market has no counter-orders.
func (c *Client) GetQuote(ctx context.Context, p QuoteParams) (*market.Quote, error) {
	const op = "get quote"

	body, status, err := c.Get(ctx, op, quotePath, p.values())
	if err != nil {
		return nil, err
	}
	if err := checkStatus(op, status, body); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, malformed(op, "empty body")
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, malformed(op, "%v", err)
	}
	return resp.Quote, nil
}
