package ledger

import (
	"testing"
	"time"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus_PendingRelativeToToday(t *testing.T) {
	due := date(2024, time.March, 1)

	assert.Equal(t, models.InstallmentStatusUpcoming,
		DeriveStatus(models.InstallmentStatePending, due, date(2024, time.February, 1)))
	assert.Equal(t, models.InstallmentStatusDueToday,
		DeriveStatus(models.InstallmentStatePending, due, date(2024, time.March, 1)))
	assert.Equal(t, models.InstallmentStatusOverdue,
		DeriveStatus(models.InstallmentStatePending, due, date(2024, time.March, 2)))
}

func TestDeriveStatus_PaidWinsOverAnyDate(t *testing.T) {
	due := date(2024, time.March, 1)

	for _, today := range []time.Time{
		date(2023, time.December, 25),
		due,
		date(2025, time.July, 4),
	} {
		assert.Equal(t, models.InstallmentStatusPaid,
			DeriveStatus(models.InstallmentStatePaid, due, today))
	}
}

func TestDeriveStatus_IgnoresTimeOfDay(t *testing.T) {
	// Due at "midnight March 1st", read at 23:59 the same day: still due
	// today, not overdue.
	due := date(2024, time.March, 1)
	lateEvening := time.Date(2024, time.March, 1, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, models.InstallmentStatusDueToday,
		DeriveStatus(models.InstallmentStatePending, due, lateEvening))

	// Due date stored with a stray time component compares by calendar day.
	dueWithTime := time.Date(2024, time.March, 1, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, models.InstallmentStatusOverdue,
		DeriveStatus(models.InstallmentStatePending, dueWithTime, date(2024, time.March, 2)))
}
