package services

import (
	"github.com/leonardosolari/dental-pay-tracker/internal/config"
	"github.com/leonardosolari/dental-pay-tracker/internal/jobs"
	"github.com/leonardosolari/dental-pay-tracker/internal/repository"
	"github.com/leonardosolari/dental-pay-tracker/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth        *AuthService
	Patient     *PatientService
	Payment     *PaymentService
	Installment *InstallmentService
	Reminder    *ReminderService
	Report      *ReportService
	Audit       *AuditService
	Email       *EmailService
	Job         *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, store *storage.LocalStorage, cfg *config.Config, db *gorm.DB) *Services {
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(db)

	return &Services{
		Auth:        NewAuthService(repos.User, repos.RefreshToken, cfg),
		Patient:     NewPatientService(repos.Patient, auditSvc),
		Payment:     NewPaymentService(repos.Payment, repos.Patient, auditSvc),
		Installment: NewInstallmentService(repos.Installment, store, emailSvc, auditSvc, worker),
		Reminder:    NewReminderService(repos.Installment, emailSvc),
		Report:      NewReportService(repos.Payment, repos.Installment),
		Audit:       auditSvc,
		Email:       emailSvc,
		Job:         NewJobService(worker),
	}
}
