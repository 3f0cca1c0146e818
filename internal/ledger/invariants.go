package ledger

import (
	"fmt"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/shopspring/decimal"
)

// CheckInvariants is the defensive pre-commit check run at the storage
// boundary before a plan is written: numbering must be a contiguous 1..N run,
// every installment must carry the same count and a positive amount, and the
// amounts must sum to the payment total to the cent.
func CheckInvariants(total decimal.Decimal, installments []models.Installment) error {
	count := len(installments)
	if count == 0 {
		return fmt.Errorf("%w: piano senza rate", ErrInvariantViolation)
	}

	sum := decimal.Zero
	for i, inst := range installments {
		if inst.Number != i+1 {
			return fmt.Errorf("%w: numerazione non contigua (posizione %d, numero %d)", ErrInvariantViolation, i+1, inst.Number)
		}
		if inst.Count != count {
			return fmt.Errorf("%w: rata %d dichiara %d rate su %d", ErrInvariantViolation, inst.Number, inst.Count, count)
		}
		if !inst.Amount.IsPositive() {
			return fmt.Errorf("%w: rata %d con importo %s", ErrInvariantViolation, inst.Number, inst.Amount)
		}
		if inst.State == models.InstallmentStatePaid && inst.PaidDate == nil {
			return fmt.Errorf("%w: rata %d pagata senza data di pagamento", ErrInvariantViolation, inst.Number)
		}
		if inst.State == models.InstallmentStatePending && inst.PaidDate != nil {
			return fmt.Errorf("%w: rata %d in attesa con data di pagamento", ErrInvariantViolation, inst.Number)
		}
		sum = sum.Add(inst.Amount)
	}

	if !sum.Equal(total) {
		return fmt.Errorf("%w: somma rate %s diversa dal totale %s", ErrInvariantViolation, sum, total)
	}

	return nil
}
