package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/charleschow/sfbuy/internal/core/market"
	"github.com/charleschow/sfbuy/internal/core/units"
	"github.com/charleschow/sfbuy/internal/events"
)

const (
	ColorGreen  = 0x2ECC71
	ColorRed    = 0xE74C3C
	ColorYellow = 0xF1C40F
	ColorBlue   = 0x3498DB
)

const alertTimeout = 5 * time.Second

func (n *Notifier) BatchStarted(ctx context.Context, orders int, totalCents int64, format units.Formatter) error {
	return n.Send(ctx, Embed{
		Title: "Split Buy Started",
		Color: ColorBlue,
		Fields: []Field{
			{Name: "Orders", Value: fmt.Sprintf("%d", orders), Inline: true},
			{Name: "Total", Value: format.Dollars(totalCents), Inline: true},
		},
	})
}

func (n *Notifier) OrderResolved(ctx context.Context, order *market.Order, spec market.OrderSpec, format units.Formatter) error {
	color := ColorYellow
	switch order.Status {
	case market.StatusFilled:
		color = ColorGreen
	case market.StatusOpen:
		color = ColorBlue
	}
	return n.Send(ctx, Embed{
		Title: fmt.Sprintf("Order %s", order.Status),
		Color: color,
		Fields: []Field{
			{Name: "Type", Value: spec.InstanceType, Inline: true},
			{Name: "Nodes", Value: fmt.Sprintf("%d", spec.Quantity), Inline: true},
			{Name: "Price", Value: format.Dollars(spec.PriceCents), Inline: true},
			{Name: "Start", Value: format.Start(spec.Window.Start), Inline: true},
			{Name: "End", Value: format.Instant(spec.Window.End), Inline: true},
			{Name: "Order ID", Value: order.ID, Inline: false},
		},
	})
}

func (n *Notifier) OrderGaveUp(ctx context.Context, orderID string, polls int) error {
	return n.Send(ctx, Embed{
		Title:       "Order possibly failed",
		Description: fmt.Sprintf("%s was still pending after %d polls", orderID, polls),
		Color:       ColorRed,
	})
}

// Subscribe sends an alert for each single order's outcome and one per
// split batch. Delivery failures are returned to the bus, which logs them.
func (n *Notifier) Subscribe(bus *events.Bus, format units.Formatter) {
	if !n.Enabled() {
		return
	}
	bus.Subscribe(events.EventBatchStarted, func(e events.Event) error {
		b, ok := e.Payload.(events.BatchEvent)
		if !ok {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()
		return n.BatchStarted(ctx, b.Orders, b.TotalCents, format)
	})
	bus.Subscribe(events.EventOrderResolved, func(e events.Event) error {
		oe, ok := e.Payload.(events.OrderEvent)
		if !ok || oe.Batch || oe.Order == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()
		return n.OrderResolved(ctx, oe.Order, oe.Spec, format)
	})
	bus.Subscribe(events.EventOrderGaveUp, func(e events.Event) error {
		oe, ok := e.Payload.(events.OrderEvent)
		if !ok || oe.Batch {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()
		return n.OrderGaveUp(ctx, oe.OrderID, oe.Polls)
	})
}
