package execution

import (
	"errors"
	"sync/atomic"
)

// ErrSpendCap is returned when an order would push total spend over the cap.
var ErrSpendCap = errors.New("order exceeds the configured spend cap")

// SpendGuard tracks total cents committed by this process and enforces a
// cap. A zero cap means unlimited.
type SpendGuard struct {
	maxCents   int64
	spentCents atomic.Int64
}

func NewSpendGuard(maxCents int64) *SpendGuard {
	return &SpendGuard{maxCents: maxCents}
}

func (s *SpendGuard) Limited() bool { return s != nil && s.maxCents > 0 }

func (s *SpendGuard) MaxCents() int64 {
	if s == nil {
		return 0
	}
	return s.maxCents
}

func (s *SpendGuard) CanSpend(cents int64) bool {
	if !s.Limited() {
		return true
	}
	return s.spentCents.Load()+cents <= s.maxCents
}

// Reserve atomically claims cents against the cap.
func (s *SpendGuard) Reserve(cents int64) bool {
	if s == nil {
		return true
	}
	for {
		spent := s.spentCents.Load()
		if s.maxCents > 0 && spent+cents > s.maxCents {
			return false
		}
		if s.spentCents.CompareAndSwap(spent, spent+cents) {
			return true
		}
	}
}

// Release returns a reservation whose order was never placed.
func (s *SpendGuard) Release(cents int64) {
	if s == nil {
		return
	}
	s.spentCents.Add(-cents)
}

func (s *SpendGuard) TotalSpent() int64 {
	if s == nil {
		return 0
	}
	return s.spentCents.Load()
}
