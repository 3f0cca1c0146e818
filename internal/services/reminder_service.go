package services

import (
	"context"
	"fmt"
	"time"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/leonardosolari/dental-pay-tracker/internal/repository"
	"github.com/leonardosolari/dental-pay-tracker/pkg/logger"
)

// ReminderService sends patients a periodic email about overdue
// installments. It is driven by the background worker, not by HTTP traffic.
type ReminderService struct {
	installmentRepo repository.InstallmentRepository
	emailSvc        *EmailService
}

func NewReminderService(installmentRepo repository.InstallmentRepository, emailSvc *EmailService) *ReminderService {
	return &ReminderService{
		installmentRepo: installmentRepo,
		emailSvc:        emailSvc,
	}
}

// SendOverdueReminders finds every pending installment past its due date and
// emails each affected patient once, with all their overdue rows in one
// message. Patients without an email address are skipped.
func (s *ReminderService) SendOverdueReminders(ctx context.Context) error {
	overdue, err := s.installmentRepo.FindOverdue(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(overdue) == 0 {
		return nil
	}

	byPatient := make(map[uint][]models.Installment)
	patients := make(map[uint]*models.Patient)
	for _, inst := range overdue {
		patientID := inst.Payment.PatientID
		byPatient[patientID] = append(byPatient[patientID], inst)
		if _, ok := patients[patientID]; !ok {
			p := inst.Payment.Patient
			patients[patientID] = &p
		}
	}

	var sent, skipped, failed int
	for patientID, installments := range byPatient {
		patient := patients[patientID]
		if patient.Email == nil {
			skipped++
			continue
		}
		if err := s.emailSvc.SendOverdueReminder(ctx, patient, installments); err != nil {
			failed++
			continue
		}
		sent++
	}

	logger.Info(fmt.Sprintf("Promemoria rate scadute: %d inviati, %d senza email, %d falliti", sent, skipped, failed))
	if failed > 0 {
		return fmt.Errorf("invio promemoria fallito per %d pazienti", failed)
	}
	return nil
}
