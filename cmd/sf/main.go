package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charleschow/sfbuy/internal/adapters/outbound/discord"
	"github.com/charleschow/sfbuy/internal/adapters/outbound/market_http"
	"github.com/charleschow/sfbuy/internal/clock"
	"github.com/charleschow/sfbuy/internal/config"
	"github.com/charleschow/sfbuy/internal/core/billing"
	"github.com/charleschow/sfbuy/internal/core/buy"
	"github.com/charleschow/sfbuy/internal/core/execution"
	"github.com/charleschow/sfbuy/internal/core/market"
	"github.com/charleschow/sfbuy/internal/core/quote"
	"github.com/charleschow/sfbuy/internal/core/units"
	"github.com/charleschow/sfbuy/internal/events"
	"github.com/charleschow/sfbuy/internal/telemetry"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "buy" {
		fmt.Fprintln(stderr, "usage: sf buy [flags]")
		return exitUsage
	}

	opts, err := parseBuyFlags(args[1:], stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitFail
	}
	telemetry.InitWriter(stderr, telemetry.ParseLogLevel(cfg.LogLevel))

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitFail
	}
	if opts.concurrency <= 0 {
		opts.concurrency = cfg.SubmitConcurrency
	}

	clk := clock.New()
	format := units.NewFormatter(cfg.DateLayout, loc)
	bus := events.NewBus()

	client := market_http.NewClient(cfg.APIURL, tokenSource(cfg), cfg.HTTPTimeout)
	rounder := billing.NewRounder(market.BillingGrid, clk)
	spend := execution.NewSpendGuard(cfg.MaxSpendCents)
	executor := execution.NewExecutor(
		execution.NewSubmitter(client, rounder, spend),
		execution.NewPoller(client, clk, cfg.PollInterval, cfg.PollBudget),
		bus, clk, opts.concurrency,
	)

	var confirmer buy.Confirmer
	if !opts.req.Yes {
		confirmer = newPrompt(stdin, stdout)
	}

	orch := buy.NewOrchestrator(buy.Deps{
		Quoter:    quote.NewQuoter(client, clk),
		Rounder:   rounder,
		Executor:  executor,
		Spend:     spend,
		Confirmer: confirmer,
		Clock:     clk,
		Format:    format,
		Location:  loc,
	})

	reporter := buy.NewReporter(stdout, stderr, format, clk)
	reporter.Subscribe(bus)
	discord.NewNotifier(cfg.DiscordWebhookURL, clk).Subscribe(bus, format)

	res, err := orch.Run(ctx, opts.req)
	reporter.Result(res)
	if err != nil {
		reporter.Error(err)
	}
	telemetry.Debugf("sf buy done  %s", telemetry.Summary())
	return exitCode(res, err)
}

// tokenSource prefers SF_API_TOKEN, then the session file on first use.
func tokenSource(cfg *config.Config) market_http.TokenSource {
	if cfg.APIToken != "" {
		return market_http.StaticToken(cfg.APIToken)
	}
	path := cfg.SessionPath
	return market_http.NewLazyToken(func() (string, error) {
		s, err := config.LoadSession(path)
		if err != nil {
			return "", err
		}
		return s.AuthToken, nil
	})
}

// exitCode is 0 on success, 1 when the command failed or a single order
// possibly failed.
func exitCode(res *buy.Result, err error) int {
	if err != nil {
		return exitFail
	}
	if res != nil && res.Mode == buy.ModeSingle && res.Class == buy.ClassPossiblyFailed {
		return exitFail
	}
	return exitOK
}

type buyOptions struct {
	req         buy.Request
	concurrency int
}

func parseBuyFlags(args []string, stderr io.Writer) (buyOptions, error) {
	var o buyOptions
	fs := flag.NewFlagSet("sf buy", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.req.InstanceType, "type", buy.DefaultInstanceType, "instance type")
	fs.StringVar(&o.req.InstanceType, "t", buy.DefaultInstanceType, "shorthand for --type")
	fs.IntVar(&o.req.Accelerators, "accelerators", buy.DefaultAccelerators, "number of GPUs, a multiple of 8")
	fs.IntVar(&o.req.Accelerators, "n", buy.DefaultAccelerators, "shorthand for --accelerators")
	fs.StringVar(&o.req.Duration, "duration", buy.DefaultDuration, "duration, e.g. 1h, 2d, 90m")
	fs.StringVar(&o.req.Duration, "d", buy.DefaultDuration, "shorthand for --duration")
	fs.StringVar(&o.req.Price, "price", "", "dollars per GPU-hour; omit to take the quoted price")
	fs.StringVar(&o.req.Price, "p", "", "shorthand for --price")
	fs.StringVar(&o.req.Start, "start", "", "start time, e.g. NOW, +1h, tomorrow, 2026-10-18T09:00:00Z")
	fs.StringVar(&o.req.Start, "s", "", "shorthand for --start")
	fs.BoolVar(&o.req.Yes, "yes", false, "place the order without asking")
	fs.BoolVar(&o.req.Yes, "y", false, "shorthand for --yes")
	fs.BoolVar(&o.req.QuoteOnly, "quote", false, "only show the best available price")
	fs.BoolVar(&o.req.Split, "split", false, "place one order per node per hour")
	fs.IntVar(&o.concurrency, "concurrency", 0, "split orders in flight at once (default SF_SUBMIT_CONCURRENCY)")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %v", fs.Args())
		fmt.Fprintln(stderr, err)
		return o, err
	}
	return o, nil
}
