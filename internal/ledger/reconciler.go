package ledger

import (
	"fmt"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/shopspring/decimal"
)

// Reconcile redistributes newTotal across an existing plan after the payment
// total was edited. The shape of the plan is untouchable: count, numbering,
// due dates, paid/pending state and paid dates all survive as they are, only
// the amounts change. The remainder policy is the same as Build's, so
// reconciling twice with the same total is a no-op the second time.
//
// A paid installment's recorded amount may still be rewritten here; paid does
// not freeze the amount in this system.
func Reconcile(installments []models.Installment, newTotal decimal.Decimal) ([]models.Installment, error) {
	if !newTotal.IsPositive() {
		return nil, fmt.Errorf("%w: nuovo totale %s", ErrInvalidSplit, newTotal)
	}
	if len(installments) == 0 {
		return nil, fmt.Errorf("%w: nessuna rata da ricalcolare", ErrInvalidSplit)
	}

	count := len(installments)
	base := baseShare(newTotal, count)
	last := lastShare(newTotal, base, count)
	if (count > 1 && !base.IsPositive()) || !last.IsPositive() {
		return nil, fmt.Errorf("%w: totale %s non divisibile in %d rate", ErrInvalidSplit, newTotal, count)
	}

	updated := make([]models.Installment, count)
	copy(updated, installments)
	for i := range updated {
		if i == count-1 {
			updated[i].Amount = last
		} else {
			updated[i].Amount = base
		}
	}

	return updated, nil
}
