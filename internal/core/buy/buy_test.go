package buy

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/sfbuy/internal/adapters/outbound/market_http"
	"github.com/charleschow/sfbuy/internal/clock"
	"github.com/charleschow/sfbuy/internal/core/billing"
	"github.com/charleschow/sfbuy/internal/core/execution"
	"github.com/charleschow/sfbuy/internal/core/market"
	"github.com/charleschow/sfbuy/internal/core/quote"
	"github.com/charleschow/sfbuy/internal/core/units"
	"github.com/charleschow/sfbuy/internal/events"
)

var t0 = time.Date(2026, 10, 17, 13, 0, 0, 0, time.UTC)

// fakeMarket is the whole remote API in memory.
type fakeMarket struct {
	mu sync.Mutex

	quote       *market.Quote
	quoteCalls  int
	placed      []market_http.CreateOrderRequest
	getCalls    int
	pendingFor  int
	finalStatus market.OrderStatus
	orderStart  market.Start
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{finalStatus: market.StatusFilled, pendingFor: 1}
}

func (m *fakeMarket) GetQuote(_ context.Context, _ market_http.QuoteParams) (*market.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quoteCalls++
	return m.quote, nil
}

func (m *fakeMarket) PlaceOrder(_ context.Context, req market_http.CreateOrderRequest) (*market.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed = append(m.placed, req)
	return &market.Order{ID: fmt.Sprintf("ord_%d", len(m.placed)), Status: market.StatusPending, Price: req.Price}, nil
}

func (m *fakeMarket) GetOrder(_ context.Context, id string) (*market.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	status := market.StatusPending
	if m.getCalls > m.pendingFor {
		status = m.finalStatus
	}
	return &market.Order{ID: id, Status: status, StartAt: m.orderStart}, nil
}

func (m *fakeMarket) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quoteCalls + len(m.placed) + m.getCalls
}

func (m *fakeMarket) totalPlaced() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, p := range m.placed {
		total += p.Price
	}
	return total
}

type fakeConfirmer struct {
	answer   bool
	messages []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, msg string) (bool, error) {
	c.messages = append(c.messages, msg)
	return c.answer, nil
}

type harness struct {
	market *fakeMarket
	clock  *clock.Fake
	orch   *Orchestrator
	bus    *events.Bus
	out    *bytes.Buffer
	errOut *bytes.Buffer
	report *Reporter
}

func newHarness(t *testing.T, confirmer Confirmer, maxSpend int64) *harness {
	t.Helper()
	m := newFakeMarket()
	clk := clock.NewFake(t0)
	bus := events.NewBus()
	rounder := billing.NewRounder(market.BillingGrid, clk)
	spend := execution.NewSpendGuard(maxSpend)
	format := units.NewFormatter("%m/%d/%Y %I:%M %p", time.UTC)

	executor := execution.NewExecutor(
		execution.NewSubmitter(m, rounder, spend),
		execution.NewPoller(m, clk, 500*time.Millisecond, 500),
		bus, clk, 4,
	)
	orch := NewOrchestrator(Deps{
		Quoter:    quote.NewQuoter(m, clk),
		Rounder:   rounder,
		Executor:  executor,
		Spend:     spend,
		Confirmer: confirmer,
		Clock:     clk,
		Format:    format,
		Location:  time.UTC,
	})

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	report := NewReporter(out, errOut, format, clk)
	report.Subscribe(bus)
	return &harness{market: m, clock: clk, orch: orch, bus: bus, out: out, errOut: errOut, report: report}
}

func TestSingleOrderEndToEnd(t *testing.T) {
	h := newHarness(t, nil, 0)

	res, err := h.orch.Run(context.Background(), Request{
		InstanceType: "h100i",
		Accelerators: 8,
		Duration:     "1h",
		Price:        "2.50",
		Yes:          true,
	})
	require.NoError(t, err)

	require.Len(t, h.market.placed, 1)
	placed := h.market.placed[0]
	assert.Equal(t, int64(2000), placed.Price)
	assert.Equal(t, 1, placed.Quantity)
	assert.Equal(t, "NOW", placed.StartAt)
	assert.Equal(t, "2026-10-17T14:00:00.000Z", placed.EndAt)
	assert.Equal(t, 0, h.market.quoteCalls, "a priced order is not quoted")

	assert.Equal(t, ModeSingle, res.Mode)
	assert.Equal(t, ClassStartingSoon, res.Class)
	assert.Equal(t, 2, res.Single.Poll.Polls)

	h.report.Result(res)
	assert.Contains(t, h.out.String(), "Order ord_1 - pending")
	assert.Contains(t, h.out.String(), "Order ord_1 - filled")
	assert.Contains(t, h.out.String(), "Your nodes are currently spinning up")
}

func TestSingleOrderRoundsAndProrates(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.clock.Advance(20 * time.Second)

	res, err := h.orch.Run(context.Background(), Request{
		Accelerators: 8,
		Duration:     "1h",
		Price:        "2.50",
		Start:        "2026-10-17T15:30:20Z",
		Yes:          true,
	})
	require.NoError(t, err)

	placed := h.market.placed[0]
	assert.Equal(t, "2026-10-17T15:31:00.000Z", placed.StartAt)
	assert.Equal(t, "2026-10-17T16:31:00.000Z", placed.EndAt)
	assert.Equal(t, int64(2000), placed.Price, "rounded window keeps its length")
	assert.Equal(t, "h100i", placed.InstanceType)
	assert.Equal(t, int64(3600), res.Window.Seconds(h.clock.Now()))
}

func TestFilledLaterStartsLater(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.market.orderStart = market.At(t0.Add(3 * time.Hour))

	res, err := h.orch.Run(context.Background(), Request{
		Accelerators: 16,
		Duration:     "2h",
		Price:        "1",
		Start:        "+3h",
		Yes:          true,
	})
	require.NoError(t, err)
	assert.Equal(t, ClassStartingLater, res.Class)
	assert.Equal(t, int64(1*8*2*2*100), h.market.placed[0].Price)
	assert.Equal(t, 2, h.market.placed[0].Quantity)

	h.report.Result(res)
	assert.Contains(t, h.out.String(), "Your contract begins 2 hours from now")
}

func TestSplitEndToEnd(t *testing.T) {
	h := newHarness(t, nil, 0)

	res, err := h.orch.Run(context.Background(), Request{
		Accelerators: 16,
		Duration:     "3h",
		Price:        "3.00",
		Start:        "2026-10-18T09:00:00Z",
		Yes:          true,
		Split:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, ModeSplit, res.Mode)
	require.Len(t, h.market.placed, 6)
	for _, p := range h.market.placed {
		assert.Equal(t, int64(2400), p.Price)
		assert.Equal(t, 1, p.Quantity)
	}
	assert.Equal(t, int64(14400), h.market.totalPlaced())
	assert.Equal(t, int64(14400), res.TotalCents)
	assert.Equal(t, 6, res.Summary.Orders)

	h.report.Result(res)
	assert.Contains(t, h.out.String(), "Placing 6 orders...")
	assert.NotContains(t, h.out.String(), "Order ord_1 - pending", "batch orders are not printed one by one")
}

func TestSplitSummaryCountsOpen(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.market.finalStatus = market.StatusOpen

	res, err := h.orch.Run(context.Background(), Request{
		Accelerators: 8,
		Duration:     "2h",
		Price:        "3",
		Start:        "+1d",
		Yes:          true,
		Split:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, SplitSummary{Orders: 2, Open: 2}, res.Summary)

	h.report.Result(res)
	assert.Contains(t, h.out.String(), "2 orders are still open")
}

func TestValidationMakesNoCalls(t *testing.T) {
	cases := []struct {
		name  string
		req   Request
		field string
	}{
		{"accelerators not a multiple of 8", Request{Accelerators: 12, Duration: "1h", Price: "2"}, "accelerators"},
		{"bad duration", Request{Accelerators: 8, Duration: "soon", Price: "2"}, "duration"},
		{"bad start", Request{Accelerators: 8, Duration: "1h", Start: "whenever", Price: "2"}, "start"},
		{"bad price", Request{Accelerators: 8, Duration: "1h", Price: "-1"}, "price"},
		{"window already over", Request{Accelerators: 8, Duration: "1h", Start: "2020-01-01T00:00:00Z", Price: "2.50"}, "start"},
		{"split window already over", Request{Accelerators: 8, Duration: "1h", Start: "2020-01-01T00:00:00Z", Price: "2.50", Split: true}, "start"},
		{"split without start", Request{Accelerators: 8, Duration: "1h", Price: "2", Split: true}, "split"},
		{"split partial hours", Request{Accelerators: 8, Duration: "90m", Start: "+1h", Price: "2", Split: true}, "split"},
		{"split without price", Request{Accelerators: 8, Duration: "1h", Start: "+1h", Split: true}, "split"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, nil, 0)
			tc.req.Yes = true

			res, err := h.orch.Run(context.Background(), tc.req)
			assert.Nil(t, res)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
			assert.Equal(t, 0, h.market.calls())
		})
	}
}

func TestWindowEmptyAfterRoundingIsRejected(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.clock.Advance(20 * time.Second)

	// ends 10s from now, but the start is pulled up to 13:01 and so is the end
	res, err := h.orch.Run(context.Background(), Request{
		Accelerators: 8,
		Duration:     "40s",
		Price:        "2.50",
		Start:        "2026-10-17T12:59:50Z",
		Yes:          true,
	})
	assert.Nil(t, res)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "start", vErr.Field)
	assert.ErrorIs(t, err, billing.ErrEmptyWindow)
	assert.Equal(t, 0, h.market.calls())
}

func TestNoPriceNoLiquidity(t *testing.T) {
	h := newHarness(t, nil, 0)

	_, err := h.orch.Run(context.Background(), Request{Accelerators: 8, Duration: "1h", Yes: true})
	assert.ErrorIs(t, err, ErrNoLiquidity)
	assert.Equal(t, 1, h.market.quoteCalls)
	assert.Empty(t, h.market.placed)

	h.report.Error(err)
	assert.Contains(t, h.out.String(), "No one is selling this right now.")
	assert.Contains(t, h.out.String(), `sf buy -d "1h" -n 8 -p "2.50"`)
}

func TestPriceSkipsQuote(t *testing.T) {
	h := newHarness(t, nil, 0)

	_, err := h.orch.Run(context.Background(), Request{Accelerators: 8, Duration: "1h", Price: "2", Yes: true})
	require.NoError(t, err)
	assert.Equal(t, 0, h.market.quoteCalls)
	assert.Len(t, h.market.placed, 1)
}

func TestNoPriceAdoptsQuote(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.market.quote = &market.Quote{Price: 4321, StartAt: market.At(t0.Add(30 * time.Second)), EndAt: t0.Add(90 * time.Minute)}

	res, err := h.orch.Run(context.Background(), Request{Accelerators: 8, Duration: "1h", Yes: true})
	require.NoError(t, err)
	assert.True(t, res.DidQuote)

	placed := h.market.placed[0]
	assert.Equal(t, int64(4321), placed.Price, "quoted price is not re-prorated")
	assert.Equal(t, "2026-10-17T14:30:00.000Z", placed.EndAt, "quoted end is not re-rounded")
}

func TestQuoteOnly(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.market.quote = &market.Quote{Price: 2000, StartAt: market.Now(), EndAt: t0.Add(time.Hour)}

	res, err := h.orch.Run(context.Background(), Request{Accelerators: 8, Duration: "1h", Price: "9", QuoteOnly: true})
	require.NoError(t, err)
	assert.Equal(t, ModeQuote, res.Mode)
	assert.Empty(t, h.market.placed)

	h.report.Result(res)
	assert.Equal(t, "Found availability from NOW to 10/17/2026 02:00 PM (1h) at $20.00 total ($2.50/GPU-hour)\n", h.out.String())
}

func TestQuoteOnlyNoLiquidity(t *testing.T) {
	h := newHarness(t, nil, 0)

	_, err := h.orch.Run(context.Background(), Request{Accelerators: 8, Duration: "1h", Price: "9", QuoteOnly: true})
	assert.ErrorIs(t, err, ErrNoLiquidity)
	assert.EqualError(t, err, "Not enough data exists to quote this order.")
}

func TestDeclinedConfirmation(t *testing.T) {
	c := &fakeConfirmer{answer: false}
	h := newHarness(t, c, 0)

	_, err := h.orch.Run(context.Background(), Request{Accelerators: 8, Duration: "1h", Price: "2.50"})
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Empty(t, h.market.placed)

	require.Len(t, c.messages, 1)
	assert.Equal(t, "1 h100i node (8 GPUs) at $2.50 per GPU hour for 1h from now until 10/17/2026 02:00 PM for a total of $20.00\n\nBuy 8 GPUs at $2.50 per GPU hour?", c.messages[0])
}

func TestSplitConfirmationMessage(t *testing.T) {
	c := &fakeConfirmer{answer: true}
	h := newHarness(t, c, 0)

	_, err := h.orch.Run(context.Background(), Request{
		Accelerators: 16, Duration: "3h", Price: "3", Start: "2026-10-18T09:00:00Z", Split: true,
	})
	require.NoError(t, err)
	require.Len(t, c.messages, 1)
	assert.Equal(t, "You are about to place 6 orders, each for 1 h100i node (8 GPUs) for 1 hour, starting from 10/18/2026 09:00 AM, at $3.00 per GPU-hour, totaling $144.00.\nDo you want to proceed?", c.messages[0])
}

func TestConfirmationRequiredWithoutPrompt(t *testing.T) {
	h := newHarness(t, nil, 0)

	_, err := h.orch.Run(context.Background(), Request{Accelerators: 8, Duration: "1h", Price: "2.50"})
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Empty(t, h.market.placed)
}

func TestSpendCap(t *testing.T) {
	h := newHarness(t, nil, 10000)

	_, err := h.orch.Run(context.Background(), Request{
		Accelerators: 16, Duration: "3h", Price: "3", Start: "+1h", Split: true, Yes: true,
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.ErrorIs(t, err, execution.ErrSpendCap)
	assert.Equal(t, 0, h.market.calls())
}

func TestGaveUpIsPossiblyFailed(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.market.pendingFor = 1 << 30

	res, err := h.orch.Run(context.Background(), Request{Accelerators: 8, Duration: "1h", Price: "2", Yes: true})
	require.NoError(t, err)
	assert.Equal(t, ClassPossiblyFailed, res.Class)
	assert.Equal(t, 500, res.Single.Poll.Polls)
	assert.Contains(t, h.errOut.String(), "Order ord_1 - possibly failed")
}

func TestClassify(t *testing.T) {
	now := t0
	filledAt := func(s market.Start) execution.Outcome {
		return execution.Outcome{Poll: execution.PollResult{State: execution.Resolved, Order: &market.Order{Status: market.StatusFilled, StartAt: s}}}
	}
	cases := []struct {
		name string
		out  execution.Outcome
		want Class
	}{
		{"filled now", filledAt(market.Now()), ClassStartingSoon},
		{"filled within a minute", filledAt(market.At(now.Add(time.Minute))), ClassStartingSoon},
		{"filled in the past", filledAt(market.At(now.Add(-time.Hour))), ClassStartingSoon},
		{"filled later", filledAt(market.At(now.Add(61 * time.Second))), ClassStartingLater},
		{"open", execution.Outcome{Poll: execution.PollResult{State: execution.Resolved, Order: &market.Order{Status: market.StatusOpen}}}, ClassStillOpen},
		{"cancelled", execution.Outcome{Poll: execution.PollResult{State: execution.Resolved, Order: &market.Order{Status: market.StatusCancelled}}}, ClassLikelyFailed},
		{"gave up", execution.Outcome{Poll: execution.PollResult{State: execution.GaveUp}}, ClassPossiblyFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.out, now))
		})
	}
}

func TestSummarizeSeparatesUnsentOrders(t *testing.T) {
	placed := &market.Order{ID: "ord_1", Status: market.StatusPending}
	outs := []execution.Outcome{
		{Placed: placed, Poll: execution.PollResult{State: execution.Resolved, Order: &market.Order{Status: market.StatusFilled}}},
		{Placed: placed, Poll: execution.PollResult{State: execution.Resolved, Order: &market.Order{Status: market.StatusRejected}}},
		{Placed: placed, Poll: execution.PollResult{State: execution.GaveUp}},
		// cancelled before submission after another order failed
		{Spec: market.OrderSpec{Quantity: 1}},
		{Spec: market.OrderSpec{Quantity: 1}},
	}

	s := Summarize(outs)
	assert.Equal(t, SplitSummary{Orders: 5, Filled: 1, Other: 1, Pending: 1, Unsent: 2}, s)

	h := newHarness(t, nil, 0)
	h.report.Result(&Result{Mode: ModeSplit, Summary: s})
	assert.Contains(t, h.errOut.String(), "1 orders likely did not execute.")
	assert.Contains(t, h.errOut.String(), "2 orders were not placed.")
}
