package market_http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/charleschow/sfbuy/internal/telemetry"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Client struct {
	baseURL      string
	httpClient   *http.Client
	tokens       TokenSource
	readLimiter  *rate.Limiter
	writeLimiter *rate.Limiter
}

func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens:       tokens,
		readLimiter:  rate.NewLimiter(rate.Limit(20), 20),
		writeLimiter: rate.NewLimiter(rate.Limit(10), 10),
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) ([]byte, int, error) {
	lim := c.readLimiter
	if method != http.MethodGet {
		lim = c.writeLimiter
	}
	if err := lim.Wait(ctx); err != nil {
		return nil, 0, &APIError{Op: op, Kind: KindTransport, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, 0, err
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &APIError{Op: op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &APIError{Op: op, Kind: KindTransport, Err: fmt.Errorf("read response: %w", err)}
	}

	elapsed := time.Since(start)
	telemetry.Metrics.APILatency.Record(elapsed)
	telemetry.Debugf("market_http: %s %s -> %d (%s) request_id=%s", method, path, resp.StatusCode, elapsed, requestID)

	return respBody, resp.StatusCode, nil
}

func (c *Client) Get(ctx context.Context, op, path string, query url.Values) ([]byte, int, error) {
	return c.do(ctx, op, http.MethodGet, path, query, nil)
}

func (c *Client) Post(ctx context.Context, op, path string, body any) ([]byte, int, error) {
	return c.do(ctx, op, http.MethodPost, path, nil, body)
}
