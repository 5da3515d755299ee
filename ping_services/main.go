// Ping the market API to measure network latency.
//
// Measures a cold-start request (DNS + TLS + HTTP), warm keep-alive HTTP
// round trips, and optionally authenticated order-list calls through the
// same client `sf buy` uses.
//
// Usage:
//
//	go run ./ping_services              # default: 20 requests
//	go run ./ping_services -n 50        # 50 requests
//	go run ./ping_services --auth       # also time GET /v0/orders with your session
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charleschow/sfbuy/internal/adapters/outbound/market_http"
	"github.com/charleschow/sfbuy/internal/config"
	"github.com/charleschow/sfbuy/internal/core/market"
	"github.com/charleschow/sfbuy/internal/telemetry"
)

const httpTimeout = 10 * time.Second

func main() {
	n := flag.Int("n", 20, "Number of requests")
	auth := flag.Bool("auth", false, "Also time authenticated order-list calls")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	fmt.Printf("\n%s\n", strings.Repeat("=", 55))
	fmt.Printf("  MARKET API — %s\n", cfg.APIURL)
	fmt.Printf("%s\n", strings.Repeat("=", 55))

	fmt.Println("\n  Cold-start request (DNS + TLS + HTTP):")
	if ms, code, err := measureHTTP(cfg.APIURL, nil); err != nil {
		fmt.Printf("    FAILED — %v\n", err)
	} else {
		fmt.Printf("    %.1f ms  (HTTP %d)\n", ms, code)
	}

	fmt.Printf("\n  Warm HTTP latency (%d requests, keep-alive):\n", *n)
	client := &http.Client{Timeout: httpTimeout}
	if _, _, err := measureHTTP(cfg.APIURL, client); err != nil {
		fmt.Printf("  [!] Warm-up request failed: %v\n", err)
	} else {
		latencies := make([]float64, 0, *n)
		pad := len(fmt.Sprintf("%d", *n))
		for i := 1; i <= *n; i++ {
			ms, code, err := measureHTTP(cfg.APIURL, client)
			if err != nil {
				fmt.Printf("  [%*d/%d]  FAILED — %v\n", pad, i, *n, err)
				continue
			}
			latencies = append(latencies, ms)
			fmt.Printf("  [%*d/%d]  %7.1f ms  (HTTP %d)\n", pad, i, *n, ms, code)
		}
		printStats(latencies, "Market HTTP")
	}

	if *auth {
		pingOrders(cfg, *n)
	}
	fmt.Println()
}

// pingOrders times GET /v0/orders through market_http so rate limiting and
// auth are included.
func pingOrders(cfg *config.Config, n int) {
	token := cfg.APIToken
	if token == "" {
		s, err := config.LoadSession(cfg.SessionPath)
		if err != nil {
			fmt.Printf("  [!] %v\n", err)
			return
		}
		token = s.AuthToken
	}
	client := market_http.NewClient(cfg.APIURL, market_http.StaticToken(token), cfg.HTTPTimeout)

	fmt.Printf("\n  Authenticated order-list latency (%d requests):\n", n)
	ctx := context.Background()
	latencies := make([]float64, 0, n)
	pad := len(fmt.Sprintf("%d", n))
	for i := 1; i <= n; i++ {
		start := time.Now()
		orders, err := client.ListOrders(ctx, market_http.ListOrdersParams{Side: market.SideBuy, OnlyOpen: true})
		ms := float64(time.Since(start).Microseconds()) / 1000
		if err != nil {
			fmt.Printf("  [%*d/%d]  FAILED — %v\n", pad, i, n, err)
			if i == 1 {
				return
			}
			continue
		}
		latencies = append(latencies, ms)
		fmt.Printf("  [%*d/%d]  %7.1f ms  (%d open orders)\n", pad, i, n, ms, len(orders))
	}
	printStats(latencies, "Market order-list")
	fmt.Printf("\n  client: api_p50=%s api_p99=%s\n",
		telemetry.Metrics.APILatency.P50(), telemetry.Metrics.APILatency.P99())
}

func measureHTTP(url string, client *http.Client) (ms float64, statusCode int, err error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}
	c := client
	if c == nil {
		c = &http.Client{Timeout: httpTimeout}
	}
	start := time.Now()
	resp, err := c.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	return float64(elapsed.Microseconds()) / 1000, resp.StatusCode, nil
}

type stats struct {
	min, max, mean, median, stdev, p95, p99 float64
}

func summarize(latencies []float64) stats {
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	mean := 0.0
	for _, v := range latencies {
		mean += v
	}
	mean /= float64(len(latencies))

	variance := 0.0
	for _, v := range latencies {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(latencies) - 1)

	at := func(p float64) float64 {
		i := int(float64(len(sorted)) * p)
		return sorted[min(i, len(sorted)-1)]
	}
	return stats{
		min:    sorted[0],
		max:    sorted[len(sorted)-1],
		mean:   mean,
		median: sorted[len(sorted)/2],
		stdev:  math.Sqrt(variance),
		p95:    at(0.95),
		p99:    at(0.99),
	}
}

func printStats(latencies []float64, label string) {
	if len(latencies) < 2 {
		fmt.Printf("\n  Not enough %s samples for statistics.\n", label)
		return
	}
	s := summarize(latencies)
	fmt.Printf("\n  --- %s Stats (%d requests) ---\n", label, len(latencies))
	fmt.Printf("  Min:    %7.1f ms\n", s.min)
	fmt.Printf("  Max:    %7.1f ms\n", s.max)
	fmt.Printf("  Mean:   %7.1f ms\n", s.mean)
	fmt.Printf("  Median: %7.1f ms\n", s.median)
	fmt.Printf("  Stdev:  %7.1f ms\n", s.stdev)
	fmt.Printf("  p95:    %7.1f ms\n", s.p95)
	fmt.Printf("  p99:    %7.1f ms\n", s.p99)
}
