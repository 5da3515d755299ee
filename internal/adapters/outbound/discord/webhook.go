// Package discord posts order alerts to a Discord webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charleschow/sfbuy/internal/clock"
	"github.com/charleschow/sfbuy/internal/telemetry"
)

var ErrRateLimited = errors.New("discord rate limited")

const senderName = "sf buy"

// Notifier posts alert embeds to one webhook. A nil Notifier or an empty
// URL sends nothing.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	clock      clock.Clock
}

func NewNotifier(webhookURL string, clk clock.Clock) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		clock:      clk,
	}
}

func (n *Notifier) Enabled() bool { return n != nil && n.webhookURL != "" }

type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []Embed `json:"embeds"`
}

// Send posts one embed, stamped with the current time unless it already
// carries one.
func (n *Notifier) Send(ctx context.Context, embed Embed) error {
	if !n.Enabled() {
		return nil
	}
	if embed.Timestamp == "" {
		embed.Timestamp = n.clock.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(webhookPayload{Username: senderName, Embeds: []Embed{embed}})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		telemetry.Warnf("discord: rate limited, retry-after=%s", resp.Header.Get("Retry-After"))
		return ErrRateLimited
	case resp.StatusCode >= 300:
		return fmt.Errorf("discord webhook: status=%d", resp.StatusCode)
	}
	return nil
}
