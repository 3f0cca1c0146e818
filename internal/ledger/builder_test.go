package ledger

import (
	"testing"
	"time"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBuild_SplitsHundredInThree(t *testing.T) {
	installments, err := Build(dec("100.00"), 3, date(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, installments, 3)

	assert.True(t, dec("33.33").Equal(installments[0].Amount), "got %s", installments[0].Amount)
	assert.True(t, dec("33.33").Equal(installments[1].Amount), "got %s", installments[1].Amount)
	assert.True(t, dec("33.34").Equal(installments[2].Amount), "got %s", installments[2].Amount)

	assert.Equal(t, date(2024, time.February, 1), installments[0].DueDate)
	assert.Equal(t, date(2024, time.March, 1), installments[1].DueDate)
	assert.Equal(t, date(2024, time.April, 1), installments[2].DueDate)

	for i, inst := range installments {
		assert.Equal(t, i+1, inst.Number)
		assert.Equal(t, 3, inst.Count)
		assert.Equal(t, models.InstallmentStatePending, inst.State)
		assert.Nil(t, inst.PaidDate)
	}
}

func TestBuild_SumMatchesTotalExactly(t *testing.T) {
	totals := []string{"100.00", "99.99", "0.05", "1.00", "1234.56", "10.01", "333.33"}
	counts := []int{1, 2, 3, 4, 5, 7, 12}

	start := date(2024, time.June, 15)
	for _, totalStr := range totals {
		for _, count := range counts {
			total := dec(totalStr)
			installments, err := Build(total, count, start)
			if err != nil {
				// Tiny totals can be unsplittable over many installments;
				// that is a rejected request, not a broken sum.
				assert.ErrorIs(t, err, ErrInvalidSplit)
				continue
			}

			sum := decimal.Zero
			for _, inst := range installments {
				sum = sum.Add(inst.Amount)
			}
			assert.True(t, sum.Equal(total), "total=%s count=%d sum=%s", total, count, sum)
		}
	}
}

func TestBuild_SingleInstallmentGetsWholeTotal(t *testing.T) {
	installments, err := Build(dec("250.00"), 1, date(2024, time.March, 10))
	require.NoError(t, err)
	require.Len(t, installments, 1)
	assert.True(t, dec("250.00").Equal(installments[0].Amount))
	assert.Equal(t, date(2024, time.April, 10), installments[0].DueDate)
}

func TestBuild_RejectsInvalidInput(t *testing.T) {
	start := date(2024, time.January, 1)

	_, err := Build(dec("100.00"), 0, start)
	assert.ErrorIs(t, err, ErrInvalidSplit)

	_, err = Build(dec("0.00"), 3, start)
	assert.ErrorIs(t, err, ErrInvalidSplit)

	_, err = Build(dec("-10.00"), 3, start)
	assert.ErrorIs(t, err, ErrInvalidSplit)
}

func TestBuildExplicit_TakesAmountsAsGiven(t *testing.T) {
	entries := []Entry{
		{DueDate: date(2024, time.February, 1), Amount: dec("40.00")},
		{DueDate: date(2024, time.March, 1), Amount: dec("35.50")},
		{DueDate: date(2024, time.March, 1), Amount: dec("10.00")},
	}

	installments, err := BuildExplicit(entries)
	require.NoError(t, err)
	require.Len(t, installments, 3)

	for i, inst := range installments {
		assert.Equal(t, i+1, inst.Number)
		assert.Equal(t, 3, inst.Count)
		assert.True(t, entries[i].Amount.Equal(inst.Amount))
		assert.Equal(t, entries[i].DueDate, inst.DueDate)
		assert.Equal(t, models.InstallmentStatePending, inst.State)
	}
}

func TestBuildExplicit_RejectsDecreasingDueDates(t *testing.T) {
	entries := []Entry{
		{DueDate: date(2024, time.March, 1), Amount: dec("50.00")},
		{DueDate: date(2024, time.February, 1), Amount: dec("50.00")},
	}

	_, err := BuildExplicit(entries)
	assert.ErrorIs(t, err, ErrInvalidSplit)
}

func TestBuildExplicit_RejectsEmptyListAndNonPositiveAmounts(t *testing.T) {
	_, err := BuildExplicit(nil)
	assert.ErrorIs(t, err, ErrInvalidSplit)

	_, err = BuildExplicit([]Entry{{DueDate: date(2024, time.February, 1), Amount: dec("0.00")}})
	assert.ErrorIs(t, err, ErrInvalidSplit)
}
