package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/leonardosolari/dental-pay-tracker/internal/repository"
	"gorm.io/gorm"
)

type PatientService struct {
	repo     repository.PatientRepository
	auditSvc *AuditService
}

func NewPatientService(repo repository.PatientRepository, auditSvc *AuditService) *PatientService {
	return &PatientService{
		repo:     repo,
		auditSvc: auditSvc,
	}
}

func (s *PatientService) FindByID(ctx context.Context, id uint) (*models.Patient, error) {
	patient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return patient, nil
}

func (s *PatientService) List(ctx context.Context, query *repository.ListQuery) ([]models.Patient, int64, error) {
	return s.repo.List(ctx, query)
}

// Create registers a patient. Names arrive however the front desk typed them
// and are normalized to trimmed Title Case ("  mario ROSSI " → "Mario Rossi").
func (s *PatientService) Create(ctx context.Context, patient *models.Patient, actorID uint, ip, userAgent string) error {
	patient.FirstName = normalizeName(patient.FirstName)
	patient.LastName = normalizeName(patient.LastName)

	if patient.FirstName == "" || patient.LastName == "" {
		return fmt.Errorf("%w: nome e cognome sono obbligatori", ErrValidation)
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actorID, "CREATE", "Patient", patient.ID,
		fmt.Sprintf("Paziente %s creato", patient.FullName()), ip, userAgent)
	return nil
}

func (s *PatientService) Update(ctx context.Context, patient *models.Patient, actorID uint, ip, userAgent string) error {
	existing, err := s.FindByID(ctx, patient.ID)
	if err != nil {
		return err
	}

	existing.FirstName = normalizeName(patient.FirstName)
	existing.LastName = normalizeName(patient.LastName)
	existing.Email = patient.Email

	if existing.FirstName == "" || existing.LastName == "" {
		return fmt.Errorf("%w: nome e cognome sono obbligatori", ErrValidation)
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return err
	}
	*patient = *existing

	s.auditSvc.Log(ctx, actorID, "UPDATE", "Patient", patient.ID,
		fmt.Sprintf("Paziente %s aggiornato", patient.FullName()), ip, userAgent)
	return nil
}

func (s *PatientService) Delete(ctx context.Context, id uint, actorID uint, ip, userAgent string) error {
	patient, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actorID, "DELETE", "Patient", id,
		fmt.Sprintf("Paziente %s eliminato (pagamenti e rate in cascata)", patient.FullName()), ip, userAgent)
	return nil
}

// normalizeName trims and title-cases each word of a name.
func normalizeName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
