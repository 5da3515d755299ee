package units

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/charleschow/sfbuy/internal/core/market"
)

var secondsPerHour = decimal.NewFromInt(3600)

// ParseDollars parses "2.50" or "$2.50" into cents. Fractions of a cent are
// rounded half away from zero; negative amounts are rejected.
func ParseDollars(s string) (int64, error) {
	in := strings.TrimPrefix(strings.TrimSpace(s), "$")
	d, err := decimal.NewFromString(in)
	if err != nil || d.IsNegative() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// TotalCents converts a per-GPU-hour price into the total for nodes over
// seconds, banker's-rounded to whole cents.
func TotalCents(perGPUHourCents int64, nodes int, seconds int64) int64 {
	gpus := int64(nodes) * market.GPUsPerNode
	return decimal.NewFromInt(perGPUHourCents).
		Mul(decimal.NewFromInt(gpus)).
		Mul(decimal.NewFromInt(seconds)).
		Div(secondsPerHour).
		RoundBank(0).
		IntPart()
}

// PerGPUHour is the inverse of TotalCents, kept exact for display.
func PerGPUHour(totalCents int64, nodes int, seconds int64) decimal.Decimal {
	gpuSeconds := decimal.NewFromInt(int64(nodes) * market.GPUsPerNode * seconds)
	if gpuSeconds.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromInt(totalCents).Mul(secondsPerHour).Div(gpuSeconds)
}
