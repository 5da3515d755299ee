package buy

import (
	"fmt"
	"time"

	"github.com/charleschow/sfbuy/internal/core/market"
	"github.com/charleschow/sfbuy/internal/core/split"
	"github.com/charleschow/sfbuy/internal/core/units"
)

// startsNowSlack is how close to now a start reads as "from now".
const startsNowSlack = 45 * time.Second

func nodesLabel(n int) string {
	if n == 1 {
		return "node"
	}
	return "nodes"
}

func (o *Orchestrator) singleMessage(res *Result) string {
	now := o.clock.Now()
	seconds := res.Window.Seconds(now)
	gpus := res.Nodes * market.GPUsPerNode
	perGPUHour := o.format.DollarsDecimal(units.PerGPUHour(res.TotalCents, res.Nodes, seconds))
	end := o.format.Instant(res.Window.End)

	start := res.Window.Start.Resolve(now)
	var when string
	if d := start.Sub(now); d < startsNowSlack && d > -startsNowSlack {
		when = fmt.Sprintf("from now until %s", end)
	} else {
		when = fmt.Sprintf("from %s (%s) until %s", o.format.Start(res.Window.Start), o.format.Relative(start, now), end)
	}

	return fmt.Sprintf("%d %s %s (%d GPUs) at %s per GPU hour for %s %s for a total of %s\n\nBuy %d GPUs at %s per GPU hour?",
		res.Nodes, res.InstanceType, nodesLabel(res.Nodes), gpus, perGPUHour,
		o.format.Duration(time.Duration(seconds)*time.Second), when, o.format.Dollars(res.TotalCents),
		gpus, perGPUHour)
}

func (o *Orchestrator) splitMessage(req split.Request, res *Result) string {
	return fmt.Sprintf("You are about to place %d orders, each for 1 %s node (%d GPUs) for 1 hour, starting from %s, at %s per GPU-hour, totaling %s.\nDo you want to proceed?",
		req.Nodes*req.Hours(), req.InstanceType, market.GPUsPerNode, o.format.Start(req.Start),
		o.format.Dollars(req.PricePerGPUHourCents), o.format.Dollars(res.TotalCents))
}
