package buy

import "github.com/charleschow/sfbuy/internal/core/market"

const (
	DefaultInstanceType = "h100i"
	DefaultAccelerators = market.GPUsPerNode
	DefaultDuration     = "1h"
)

// Request is one buy invocation as the user typed it. Price is dollars
// per GPU-hour; empty means "take the quoted price".
type Request struct {
	InstanceType string
	Accelerators int
	Duration     string
	Price        string
	Start        string
	Yes          bool
	QuoteOnly    bool
	Split        bool
}

// normalized is a Request after parsing, before any remote call.
type normalized struct {
	instanceType         string
	accelerators         int
	nodes                int
	start                market.Start
	seconds              int64
	pricePerGPUHourCents int64
	hasPrice             bool
	window               market.Window
	yes                  bool
}
