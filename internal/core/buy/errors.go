package buy

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLiquidity matches any NoLiquidityError.
	ErrNoLiquidity = errors.New("no liquidity")

	ErrDeclined             = errors.New("Order cancelled")
	ErrConfirmationRequired = errors.New("confirmation required: pass --yes to place the order without a prompt")
	ErrInvalidAccelerators  = errors.New("invalid accelerator count")
	ErrWindowEnded          = errors.New("the requested window has already ended")
)

// ValidationError is bad input caught before any remote call.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// NoLiquidityError means the quote found no seller. Duration and
// Accelerators are kept so the caller can suggest a priced command.
type NoLiquidityError struct {
	QuoteOnly       bool
	Accelerators    int
	DurationSeconds int64
}

func (e *NoLiquidityError) Error() string {
	if e.QuoteOnly {
		return "Not enough data exists to quote this order."
	}
	return "No one is selling this right now."
}

func (e *NoLiquidityError) Is(target error) bool { return target == ErrNoLiquidity }

// ExampleCommand is a buy command that would place a priced order instead.
func (e *NoLiquidityError) ExampleCommand() string {
	hours := float64(e.DurationSeconds) / 3600
	return fmt.Sprintf(`sf buy -d "%gh" -n %d -p "2.50"`, hours, e.Accelerators)
}
