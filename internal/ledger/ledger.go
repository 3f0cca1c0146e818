// Package ledger implements the installment plan engine: splitting a payment
// total into installments, redistributing amounts when the total changes, and
// deriving the time-relative status of an installment. Everything here is a
// pure function over in-memory values; persistence and locking belong to the
// repository layer.
package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Common ledger errors
var (
	// ErrInvalidSplit is returned for an unusable split request: non-positive
	// total, installment count below one, or an explicit list whose amounts do
	// not fit the payment.
	ErrInvalidSplit = errors.New("piano di rateizzazione non valido")

	// ErrInvariantViolation is returned by the defensive pre-commit checks
	// when a plan reaching the storage boundary is internally inconsistent.
	ErrInvariantViolation = errors.New("invariante del piano rate violato")
)

// moneyScale is the number of fraction digits every amount carries.
const moneyScale = 2

// baseShare returns the per-installment base amount for a total split over
// count installments, rounded to the minor currency unit.
func baseShare(total decimal.Decimal, count int) decimal.Decimal {
	return total.DivRound(decimal.NewFromInt(int64(count)), moneyScale)
}

// lastShare returns the amount of the final installment: the total minus the
// base share of all preceding ones. Computing it by subtraction makes the sum
// invariant hold exactly whichever way the base share was rounded.
func lastShare(total, base decimal.Decimal, count int) decimal.Decimal {
	return total.Sub(base.Mul(decimal.NewFromInt(int64(count - 1))))
}
