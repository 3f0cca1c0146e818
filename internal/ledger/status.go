package ledger

import (
	"time"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
)

// DeriveStatus projects the stored pending/paid state and due date of an
// installment onto the four-valued status visible to callers, relative to
// today. Paid wins unconditionally; the rest is a calendar-date comparison
// that ignores time of day. The result is computed on every read and never
// persisted, so it can not go stale.
func DeriveStatus(state string, dueDate, today time.Time) string {
	if state == models.InstallmentStatePaid {
		return models.InstallmentStatusPaid
	}

	due := dateOnly(dueDate)
	ref := dateOnly(today)

	switch {
	case due.Before(ref):
		return models.InstallmentStatusOverdue
	case due.Equal(ref):
		return models.InstallmentStatusDueToday
	default:
		return models.InstallmentStatusUpcoming
	}
}

// dateOnly strips the time-of-day component, keeping year, month and day in
// UTC so dates loaded with different locations compare as calendar dates.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
