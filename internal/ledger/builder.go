package ledger

import (
	"fmt"
	"time"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/shopspring/decimal"
)

// Entry is one (due date, amount) pair of an explicit split request.
type Entry struct {
	DueDate time.Time
	Amount  decimal.Decimal
}

// Build splits total into count equal installments starting one calendar
// month after startDate. Installments 1..count-1 get the rounded base share;
// the last one absorbs the rounding remainder so the amounts sum to total
// exactly. All installments come back pending, numbered 1..count.
func Build(total decimal.Decimal, count int, startDate time.Time) ([]models.Installment, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: numero rate %d", ErrInvalidSplit, count)
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: totale %s", ErrInvalidSplit, total)
	}

	base := baseShare(total, count)
	last := lastShare(total, base, count)
	if (count > 1 && !base.IsPositive()) || !last.IsPositive() {
		// Total too small to spread over count installments at two decimals.
		return nil, fmt.Errorf("%w: totale %s non divisibile in %d rate", ErrInvalidSplit, total, count)
	}

	installments := make([]models.Installment, 0, count)
	for i := 1; i <= count; i++ {
		amount := base
		if i == count {
			amount = last
		}
		installments = append(installments, models.Installment{
			Number:  i,
			Count:   count,
			Amount:  amount,
			DueDate: startDate.AddDate(0, i, 0),
			State:   models.InstallmentStatePending,
		})
	}

	return installments, nil
}

// BuildExplicit builds a plan from caller-supplied (due date, amount) pairs,
// numbered in list order. Amounts are taken as given and are NOT checked
// against any payment total here; that check belongs to the storage boundary.
// Due dates must be non-decreasing.
func BuildExplicit(entries []Entry) ([]models.Installment, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: nessuna rata fornita", ErrInvalidSplit)
	}

	installments := make([]models.Installment, 0, len(entries))
	for i, e := range entries {
		if !e.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: rata %d con importo %s", ErrInvalidSplit, i+1, e.Amount)
		}
		if i > 0 && e.DueDate.Before(entries[i-1].DueDate) {
			return nil, fmt.Errorf("%w: scadenza della rata %d precedente alla rata %d", ErrInvalidSplit, i+1, i)
		}
		installments = append(installments, models.Installment{
			Number:  i + 1,
			Count:   len(entries),
			Amount:  e.Amount,
			DueDate: e.DueDate,
			State:   models.InstallmentStatePending,
		})
	}

	return installments, nil
}
