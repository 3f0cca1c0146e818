package ledger

import (
	"testing"
	"time"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_RedistributesNewTotal(t *testing.T) {
	installments, err := Build(dec("100.00"), 3, date(2024, time.January, 1))
	require.NoError(t, err)

	updated, err := Reconcile(installments, dec("90.00"))
	require.NoError(t, err)
	require.Len(t, updated, 3)

	assert.True(t, dec("30.00").Equal(updated[0].Amount), "got %s", updated[0].Amount)
	assert.True(t, dec("30.00").Equal(updated[1].Amount), "got %s", updated[1].Amount)
	assert.True(t, dec("30.00").Equal(updated[2].Amount), "got %s", updated[2].Amount)

	// Due dates stay exactly where the original plan put them.
	assert.Equal(t, date(2024, time.February, 1), updated[0].DueDate)
	assert.Equal(t, date(2024, time.March, 1), updated[1].DueDate)
	assert.Equal(t, date(2024, time.April, 1), updated[2].DueDate)
}

func TestReconcile_RemainderGoesToLastInstallment(t *testing.T) {
	installments, err := Build(dec("90.00"), 3, date(2024, time.January, 1))
	require.NoError(t, err)

	updated, err := Reconcile(installments, dec("100.00"))
	require.NoError(t, err)

	assert.True(t, dec("33.33").Equal(updated[0].Amount))
	assert.True(t, dec("33.33").Equal(updated[1].Amount))
	assert.True(t, dec("33.34").Equal(updated[2].Amount))

	sum := decimal.Zero
	for _, inst := range updated {
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, dec("100.00").Equal(sum))
}

func TestReconcile_IsIdempotent(t *testing.T) {
	installments, err := Build(dec("77.77"), 4, date(2024, time.May, 20))
	require.NoError(t, err)

	once, err := Reconcile(installments, dec("120.50"))
	require.NoError(t, err)
	twice, err := Reconcile(once, dec("120.50"))
	require.NoError(t, err)

	require.Len(t, twice, len(once))
	for i := range once {
		assert.True(t, once[i].Amount.Equal(twice[i].Amount),
			"installment %d: %s vs %s", i+1, once[i].Amount, twice[i].Amount)
	}
}

func TestReconcile_PreservesShapeAndState(t *testing.T) {
	paidAt := time.Date(2024, time.February, 2, 10, 30, 0, 0, time.UTC)
	installments, err := Build(dec("100.00"), 3, date(2024, time.January, 1))
	require.NoError(t, err)

	// First installment already settled before the total was edited.
	installments[0].State = models.InstallmentStatePaid
	installments[0].PaidDate = &paidAt

	updated, err := Reconcile(installments, dec("60.00"))
	require.NoError(t, err)
	require.Len(t, updated, 3)

	for i := range installments {
		assert.Equal(t, installments[i].Number, updated[i].Number)
		assert.Equal(t, installments[i].Count, updated[i].Count)
		assert.Equal(t, installments[i].DueDate, updated[i].DueDate)
		assert.Equal(t, installments[i].State, updated[i].State)
		assert.Equal(t, installments[i].PaidDate, updated[i].PaidDate)
	}

	// The paid installment's amount is still rewritten: paid does not freeze
	// the recorded amount.
	assert.True(t, dec("20.00").Equal(updated[0].Amount))
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	installments, err := Build(dec("100.00"), 3, date(2024, time.January, 1))
	require.NoError(t, err)

	_, err = Reconcile(installments, dec("90.00"))
	require.NoError(t, err)

	assert.True(t, dec("33.33").Equal(installments[0].Amount))
	assert.True(t, dec("33.34").Equal(installments[2].Amount))
}

func TestReconcile_RejectsNonPositiveTotal(t *testing.T) {
	installments, err := Build(dec("100.00"), 2, date(2024, time.January, 1))
	require.NoError(t, err)

	_, err = Reconcile(installments, dec("0.00"))
	assert.ErrorIs(t, err, ErrInvalidSplit)

	_, err = Reconcile(installments, dec("-5.00"))
	assert.ErrorIs(t, err, ErrInvalidSplit)
}
