package services

import (
	"context"
	"testing"
	"time"

	"github.com/leonardosolari/dental-pay-tracker/internal/ledger"
	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/leonardosolari/dental-pay-tracker/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPatientRepo struct {
	repository.PatientRepository
	mockFindByID func(ctx context.Context, id uint) (*models.Patient, error)
}

func (m *mockPatientRepo) FindByID(ctx context.Context, id uint) (*models.Patient, error) {
	return m.mockFindByID(ctx, id)
}

type mockPaymentRepo struct {
	repository.PaymentRepository
	mockCreate                      func(ctx context.Context, payment *models.Payment) error
	mockCreateWithInstallments      func(ctx context.Context, payment *models.Payment, installments []models.Installment) error
	mockFindByIDWithInstallments    func(ctx context.Context, id uint) (*models.Payment, error)
	mockUpdateTotalWithInstallments func(ctx context.Context, payment *models.Payment, installments []models.Installment) error
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	return m.mockCreate(ctx, payment)
}

func (m *mockPaymentRepo) CreateWithInstallments(ctx context.Context, payment *models.Payment, installments []models.Installment) error {
	return m.mockCreateWithInstallments(ctx, payment, installments)
}

func (m *mockPaymentRepo) FindByIDWithInstallments(ctx context.Context, id uint) (*models.Payment, error) {
	return m.mockFindByIDWithInstallments(ctx, id)
}

func (m *mockPaymentRepo) UpdateTotalWithInstallments(ctx context.Context, payment *models.Payment, installments []models.Installment) error {
	return m.mockUpdateTotalWithInstallments(ctx, payment, installments)
}

func existingPatient(ctx context.Context, id uint) (*models.Patient, error) {
	return &models.Patient{ID: id, FirstName: "Mario", LastName: "Rossi"}, nil
}

func TestPaymentService_Create_InstallmentMode(t *testing.T) {
	patientRepo := &mockPatientRepo{mockFindByID: existingPatient}
	paymentRepo := &mockPaymentRepo{}
	service := NewPaymentService(paymentRepo, patientRepo, nil)

	var saved []models.Installment
	paymentRepo.mockCreateWithInstallments = func(ctx context.Context, payment *models.Payment, installments []models.Installment) error {
		saved = installments
		payment.ID = 7
		return nil
	}

	payment, err := service.Create(context.Background(), CreatePaymentInput{
		PatientID: 1,
		Mode:      models.PaymentModeInstallment,
		Total:     decimal.RequireFromString("100.00"),
		Count:     3,
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}, 1, "127.0.0.1", "test")

	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.Equal(t, "33.33", saved[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", saved[1].Amount.StringFixed(2))
	assert.Equal(t, "33.34", saved[2].Amount.StringFixed(2))
	assert.Equal(t, uint(7), payment.ID)
	assert.Len(t, payment.Installments, 3)
}

func TestPaymentService_Create_LumpSumHasNoPlan(t *testing.T) {
	patientRepo := &mockPatientRepo{mockFindByID: existingPatient}
	paymentRepo := &mockPaymentRepo{}
	service := NewPaymentService(paymentRepo, patientRepo, nil)

	created := false
	paymentRepo.mockCreate = func(ctx context.Context, payment *models.Payment) error {
		created = true
		return nil
	}

	payment, err := service.Create(context.Background(), CreatePaymentInput{
		PatientID: 1,
		Mode:      models.PaymentModeLumpSum,
		Total:     decimal.RequireFromString("250.00"),
	}, 1, "127.0.0.1", "test")

	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, payment.Installments)
}

func TestPaymentService_Create_ExplicitEntriesSumMismatch(t *testing.T) {
	patientRepo := &mockPatientRepo{mockFindByID: existingPatient}
	service := NewPaymentService(&mockPaymentRepo{}, patientRepo, nil)

	_, err := service.Create(context.Background(), CreatePaymentInput{
		PatientID: 1,
		Mode:      models.PaymentModeInstallment,
		Total:     decimal.RequireFromString("100.00"),
		Entries: []ledger.Entry{
			{DueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("40.00")},
			{DueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("40.00")},
		},
	}, 1, "127.0.0.1", "test")

	assert.ErrorIs(t, err, ErrInvalidSplit)
}

func TestPaymentService_Create_ExplicitEntriesMatchingSum(t *testing.T) {
	patientRepo := &mockPatientRepo{mockFindByID: existingPatient}
	paymentRepo := &mockPaymentRepo{}
	service := NewPaymentService(paymentRepo, patientRepo, nil)

	var saved []models.Installment
	paymentRepo.mockCreateWithInstallments = func(ctx context.Context, payment *models.Payment, installments []models.Installment) error {
		saved = installments
		return nil
	}

	_, err := service.Create(context.Background(), CreatePaymentInput{
		PatientID: 1,
		Mode:      models.PaymentModeInstallment,
		Total:     decimal.RequireFromString("100.00"),
		Entries: []ledger.Entry{
			{DueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("60.00")},
			{DueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("40.00")},
		},
	}, 1, "127.0.0.1", "test")

	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "60.00", saved[0].Amount.StringFixed(2))
	assert.Equal(t, 2, saved[0].Count)
}

func TestPaymentService_Create_UnknownMode(t *testing.T) {
	patientRepo := &mockPatientRepo{mockFindByID: existingPatient}
	service := NewPaymentService(&mockPaymentRepo{}, patientRepo, nil)

	_, err := service.Create(context.Background(), CreatePaymentInput{
		PatientID: 1,
		Mode:      "subscription",
		Total:     decimal.RequireFromString("100.00"),
	}, 1, "127.0.0.1", "test")

	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestPaymentService_UpdateTotal_ReconcilesPlan(t *testing.T) {
	patientRepo := &mockPatientRepo{mockFindByID: existingPatient}
	paymentRepo := &mockPaymentRepo{}
	service := NewPaymentService(paymentRepo, patientRepo, nil)

	due := func(month time.Month) time.Time {
		return time.Date(2024, month, 1, 0, 0, 0, 0, time.UTC)
	}
	paymentRepo.mockFindByIDWithInstallments = func(ctx context.Context, id uint) (*models.Payment, error) {
		return &models.Payment{
			ID:    id,
			Mode:  models.PaymentModeInstallment,
			Total: decimal.RequireFromString("100.00"),
			Installments: []models.Installment{
				{Number: 1, Count: 3, Amount: decimal.RequireFromString("33.33"), DueDate: due(time.February), State: models.InstallmentStatePending},
				{Number: 2, Count: 3, Amount: decimal.RequireFromString("33.33"), DueDate: due(time.March), State: models.InstallmentStatePending},
				{Number: 3, Count: 3, Amount: decimal.RequireFromString("33.34"), DueDate: due(time.April), State: models.InstallmentStatePending},
			},
		}, nil
	}

	var saved []models.Installment
	paymentRepo.mockUpdateTotalWithInstallments = func(ctx context.Context, payment *models.Payment, installments []models.Installment) error {
		saved = installments
		return nil
	}

	payment, err := service.UpdateTotal(context.Background(), 1, UpdatePaymentInput{
		Total: decimal.RequireFromString("90.00"),
	}, 1, "127.0.0.1", "test")

	require.NoError(t, err)
	require.Len(t, saved, 3)
	for i, inst := range saved {
		assert.Equal(t, "30.00", inst.Amount.StringFixed(2))
		assert.Equal(t, i+1, inst.Number)
	}
	assert.Equal(t, due(time.February), saved[0].DueDate)
	assert.Equal(t, "90.00", payment.Total.StringFixed(2))
}

func TestPaymentService_UpdateTotal_RejectsNonPositive(t *testing.T) {
	patientRepo := &mockPatientRepo{mockFindByID: existingPatient}
	paymentRepo := &mockPaymentRepo{}
	service := NewPaymentService(paymentRepo, patientRepo, nil)

	paymentRepo.mockFindByIDWithInstallments = func(ctx context.Context, id uint) (*models.Payment, error) {
		return &models.Payment{ID: id, Mode: models.PaymentModeLumpSum, Total: decimal.RequireFromString("50.00")}, nil
	}

	_, err := service.UpdateTotal(context.Background(), 1, UpdatePaymentInput{
		Total: decimal.Zero,
	}, 1, "127.0.0.1", "test")

	assert.ErrorIs(t, err, ErrValidation)
}
