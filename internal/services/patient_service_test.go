package services

import (
	"context"
	"testing"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/leonardosolari/dental-pay-tracker/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPatientWriteRepo struct {
	repository.PatientRepository
	mockCreate func(ctx context.Context, patient *models.Patient) error
}

func (m *mockPatientWriteRepo) Create(ctx context.Context, patient *models.Patient) error {
	return m.mockCreate(ctx, patient)
}

func TestPatientService_Create_NormalizesNames(t *testing.T) {
	repo := &mockPatientWriteRepo{}
	service := NewPatientService(repo, nil)

	var saved *models.Patient
	repo.mockCreate = func(ctx context.Context, patient *models.Patient) error {
		saved = patient
		return nil
	}

	patient := &models.Patient{FirstName: "  mario  ", LastName: "DE ROSSI"}
	err := service.Create(context.Background(), patient, 1, "127.0.0.1", "test")

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Mario", saved.FirstName)
	assert.Equal(t, "De Rossi", saved.LastName)
}

func TestPatientService_Create_RejectsEmptyName(t *testing.T) {
	service := NewPatientService(&mockPatientWriteRepo{}, nil)

	err := service.Create(context.Background(), &models.Patient{FirstName: "   ", LastName: "Rossi"}, 1, "127.0.0.1", "test")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mario", "Mario"},
		{"  anna maria ", "Anna Maria"},
		{"ROSSI", "Rossi"},
		{"d'àngelo", "D'àngelo"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeName(tt.in))
	}
}
