package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leonardosolari/dental-pay-tracker/internal/ledger"
	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func reconciledPlan(paymentID uint, amounts ...string) []models.Installment {
	installments := make([]models.Installment, len(amounts))
	for i, amount := range amounts {
		installments[i] = models.Installment{
			ID:        uint(21 + i),
			PaymentID: paymentID,
			Number:    i + 1,
			Count:     len(amounts),
			Amount:    decimal.RequireFromString(amount),
			DueDate:   time.Date(2024, time.Month(i+1), 10, 0, 0, 0, 0, time.UTC),
			State:     models.InstallmentStatePending,
		}
	}
	return installments
}

// A pay that commits between the caller's snapshot and the reconcile
// transaction must survive the amount rewrite: the only installment column
// the reconcile writes is amount, never state or paid_date.
func TestUpdateTotalWithInstallments_WritesOnlyAmounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	payment := &models.Payment{ID: 7, Mode: models.PaymentModeInstallment, Total: decimal.NewFromInt(90)}
	reconciled := reconciledPlan(7, "30.00", "30.00", "30.00")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "payments" WHERE .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "mode", "total"}).
			AddRow(7, models.PaymentModeInstallment, "100"))
	// installment 22 was paid after the caller loaded its snapshot
	mock.ExpectQuery(`SELECT .+ FROM "installments" WHERE payment_id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id", "number", "count", "amount", "state"}).
			AddRow(21, 7, 1, 3, "33.33", models.InstallmentStatePending).
			AddRow(22, 7, 2, 3, "33.33", models.InstallmentStatePaid).
			AddRow(23, 7, 3, 3, "33.34", models.InstallmentStatePending))
	for range reconciled {
		mock.ExpectExec(`UPDATE "installments" SET "amount"=\$1,"updated_at"=\$2 WHERE id = \$3`).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`UPDATE "payments" SET "total"=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateTotalWithInstallments(context.Background(), payment, reconciled)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A plan that grew or shrank since the caller's snapshot is stale: the
// transaction rolls back instead of writing amounts onto the wrong rows.
func TestUpdateTotalWithInstallments_RefusesStalePlan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	payment := &models.Payment{ID: 7, Mode: models.PaymentModeInstallment, Total: decimal.NewFromInt(90)}
	reconciled := reconciledPlan(7, "30.00", "30.00", "30.00")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "payments" WHERE .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "mode", "total"}).
			AddRow(7, models.PaymentModeInstallment, "100"))
	mock.ExpectQuery(`SELECT .+ FROM "installments" WHERE payment_id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id", "number", "count", "amount", "state"}).
			AddRow(21, 7, 1, 2, "50.00", models.InstallmentStatePending).
			AddRow(22, 7, 2, 2, "50.00", models.InstallmentStatePending))
	mock.ExpectRollback()

	err := repo.UpdateTotalWithInstallments(context.Background(), payment, reconciled)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInvariantViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A reconciled plan that breaks the sum invariant never reaches the rows.
func TestUpdateTotalWithInstallments_RejectsBrokenPlan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	payment := &models.Payment{ID: 7, Mode: models.PaymentModeInstallment, Total: decimal.NewFromInt(90)}
	reconciled := reconciledPlan(7, "30.00", "30.00", "40.00")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "payments" WHERE .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "mode", "total"}).
			AddRow(7, models.PaymentModeInstallment, "100"))
	mock.ExpectRollback()

	err := repo.UpdateTotalWithInstallments(context.Background(), payment, reconciled)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInvariantViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithInstallments_RejectsBrokenPlan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	payment := &models.Payment{PatientID: 3, Mode: models.PaymentModeInstallment, Total: decimal.NewFromInt(100)}
	installments := reconciledPlan(0, "30.00", "30.00", "30.00")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.CreateWithInstallments(context.Background(), payment, installments)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInvariantViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// MarkPaid flips the row with a state-guarded UPDATE; whoever runs second
// matches nothing and learns it from the row count, not from an error.
func TestMarkPaid_GuardedUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInstallmentRepository(db)

	mock.ExpectExec(`UPDATE "installments" SET .+ WHERE id = \$\d+ AND state = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.MarkPaid(context.Background(), 22, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaid_SecondCallerMatchesNoRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInstallmentRepository(db)

	mock.ExpectExec(`UPDATE "installments" SET .+ WHERE id = \$\d+ AND state = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.MarkPaid(context.Background(), 22, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanAmountWrites(t *testing.T) {
	reconciled := reconciledPlan(7, "30.00", "30.00", "30.00")

	t.Run("maps amounts by row id", func(t *testing.T) {
		current := reconciledPlan(7, "33.33", "33.33", "33.34")
		current[1].State = models.InstallmentStatePaid

		amounts, err := planAmountWrites(current, reconciled)
		require.NoError(t, err)
		require.Len(t, amounts, 3)
		assert.True(t, amounts[22].Equal(decimal.RequireFromString("30.00")))
	})

	t.Run("refuses unknown row", func(t *testing.T) {
		current := reconciledPlan(7, "33.33", "33.33", "33.34")
		current[2].ID = 99

		_, err := planAmountWrites(current, reconciled)
		assert.ErrorIs(t, err, ledger.ErrInvariantViolation)
	})
}
