package buy

import (
	"time"

	"github.com/charleschow/sfbuy/internal/core/execution"
	"github.com/charleschow/sfbuy/internal/core/market"
)

// Class is how a single order ended up, for user guidance.
type Class int

const (
	ClassUnknown Class = iota
	ClassStartingSoon
	ClassStartingLater
	ClassStillOpen
	ClassLikelyFailed
	ClassPossiblyFailed
)

func (c Class) String() string {
	switch c {
	case ClassStartingSoon:
		return "starting_soon"
	case ClassStartingLater:
		return "starting_later"
	case ClassStillOpen:
		return "still_open"
	case ClassLikelyFailed:
		return "likely_failed"
	case ClassPossiblyFailed:
		return "possibly_failed"
	default:
		return "unknown"
	}
}

// startingSoonWindow is how close a filled contract's start must be to
// count as already spinning up.
const startingSoonWindow = time.Minute

func Classify(out execution.Outcome, now time.Time) Class {
	if out.Poll.State == execution.GaveUp {
		return ClassPossiblyFailed
	}
	order := out.Final()
	if order == nil {
		return ClassLikelyFailed
	}
	switch order.Status {
	case market.StatusFilled:
		if order.StartAt.Resolve(now).Sub(now) <= startingSoonWindow {
			return ClassStartingSoon
		}
		return ClassStartingLater
	case market.StatusOpen:
		return ClassStillOpen
	default:
		return ClassLikelyFailed
	}
}

// SplitSummary counts a batch's outcomes by final status.
type SplitSummary struct {
	Orders  int
	Filled  int
	Open    int
	Pending int // never left pending within the poll budget
	Other   int
	Unsent  int // never accepted by the market
}

func Summarize(outs []execution.Outcome) SplitSummary {
	s := SplitSummary{Orders: len(outs)}
	for _, out := range outs {
		if out.Placed == nil {
			s.Unsent++
			continue
		}
		if out.Poll.State == execution.GaveUp {
			s.Pending++
			continue
		}
		order := out.Final()
		switch {
		case order == nil:
			s.Other++
		case order.Status == market.StatusFilled:
			s.Filled++
		case order.Status == market.StatusOpen:
			s.Open++
		default:
			s.Other++
		}
	}
	return s
}
