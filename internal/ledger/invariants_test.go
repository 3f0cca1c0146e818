package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInvariants_AcceptsBuiltPlan(t *testing.T) {
	installments, err := Build(dec("100.00"), 3, date(2024, time.January, 1))
	require.NoError(t, err)

	assert.NoError(t, CheckInvariants(dec("100.00"), installments))
}

func TestCheckInvariants_RejectsSumMismatch(t *testing.T) {
	installments, err := Build(dec("100.00"), 3, date(2024, time.January, 1))
	require.NoError(t, err)

	err = CheckInvariants(dec("99.00"), installments)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestCheckInvariants_RejectsBrokenNumbering(t *testing.T) {
	installments, err := Build(dec("100.00"), 3, date(2024, time.January, 1))
	require.NoError(t, err)

	installments[1].Number = 5
	err = CheckInvariants(dec("100.00"), installments)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestCheckInvariants_RejectsCountDisagreement(t *testing.T) {
	installments, err := Build(dec("100.00"), 3, date(2024, time.January, 1))
	require.NoError(t, err)

	installments[2].Count = 4
	err = CheckInvariants(dec("100.00"), installments)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestCheckInvariants_RejectsStateWithoutPaidDate(t *testing.T) {
	installments, err := Build(dec("100.00"), 2, date(2024, time.January, 1))
	require.NoError(t, err)

	installments[0].State = "paid"
	err = CheckInvariants(dec("100.00"), installments)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestCheckInvariants_RejectsEmptyPlan(t *testing.T) {
	err := CheckInvariants(dec("100.00"), nil)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}
