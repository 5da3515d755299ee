package units

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/charleschow/sfbuy/internal/core/market"
)

// Formatter renders instants, money and durations for terminal output.
// It is built once at startup and never mutated; pass it by value.
type Formatter struct {
	layout  string
	loc     *time.Location
	printer *message.Printer
}

// NewFormatter takes a strftime layout such as "%m/%d/%Y %I:%M %p".
func NewFormatter(layout string, loc *time.Location) Formatter {
	if loc == nil {
		loc = time.Local
	}
	return Formatter{
		layout:  layout,
		loc:     loc,
		printer: message.NewPrinter(language.English),
	}
}

func (f Formatter) Instant(t time.Time) string {
	return strftime.Format(f.layout, t.In(f.loc))
}

func (f Formatter) Start(s market.Start) string {
	if s.IsNow() {
		return market.NowSentinel
	}
	return f.Instant(s.Time())
}

// Relative describes t against now, e.g. "3 hours from now" or "2 minutes ago".
func (f Formatter) Relative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// Dollars renders cents as "$1,234.50".
func (f Formatter) Dollars(cents int64) string {
	return f.DollarsDecimal(decimal.NewFromInt(cents))
}

// DollarsDecimal renders a (possibly fractional) cent amount as dollars.
func (f Formatter) DollarsDecimal(cents decimal.Decimal) string {
	dollars := cents.Shift(-2).Round(2).InexactFloat64()
	return f.printer.Sprintf("$%v", number.Decimal(dollars, number.Scale(2)))
}

// Duration renders d as "2d 3h 15m"; seconds only appear below one minute.
func (f Formatter) Duration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int64(d.Round(time.Second)/time.Second))
	}
	d = d.Round(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	return strings.Join(parts, " ")
}
