// Package split decomposes a multi-node, multi-hour request into one order
// per node per hour. The market can fill those small blocks independently
// when it cannot fill the whole request as one.
package split

import (
	"errors"
	"time"

	"github.com/charleschow/sfbuy/internal/core/market"
)

var (
	ErrStartRequired = errors.New("--split option requires a start date to be specified using --start")
	ErrWholeHours    = errors.New("--split option requires duration to be an integer number of hours")
	ErrPriceRequired = errors.New("--split option requires price to be specified using --price")
	ErrNoNodes       = errors.New("--split option requires at least one node")
)

type Request struct {
	InstanceType         string
	Nodes                int
	Start                market.Start
	DurationSeconds      int64
	PricePerGPUHourCents int64
	HasPrice             bool
}

// Hours is the number of one-hour slices the request covers.
func (r Request) Hours() int {
	return int(r.DurationSeconds / 3600)
}

// Validate checks the preconditions for splitting without building anything.
func Validate(req Request) error {
	switch {
	case req.Start.IsNow():
		return ErrStartRequired
	case req.DurationSeconds <= 0 || req.DurationSeconds%3600 != 0:
		return ErrWholeHours
	case !req.HasPrice || req.PricePerGPUHourCents < 0:
		return ErrPriceRequired
	case req.Nodes < 1:
		return ErrNoNodes
	}
	return nil
}

// Split returns Nodes × Hours specs. Hour h covers [start+h, start+h+1);
// every spec is one node for one hour priced at PricePerGPUHourCents × GPUsPerNode.
func Split(req Request) ([]market.OrderSpec, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	hours := req.Hours()
	perOrder := req.PricePerGPUHourCents * market.GPUsPerNode
	base := req.Start.Time()

	specs := make([]market.OrderSpec, 0, req.Nodes*hours)
	for h := 0; h < hours; h++ {
		start := base.Add(time.Duration(h) * time.Hour)
		end := start.Add(time.Hour)
		for n := 0; n < req.Nodes; n++ {
			specs = append(specs, market.OrderSpec{
				InstanceType: req.InstanceType,
				Quantity:     1,
				PriceCents:   perOrder,
				Window:       market.Window{Start: market.At(start), End: end},
			})
		}
	}
	return specs, nil
}

// TotalCents sums the price of specs.
func TotalCents(specs []market.OrderSpec) int64 {
	var total int64
	for _, s := range specs {
		total += s.PriceCents
	}
	return total
}
