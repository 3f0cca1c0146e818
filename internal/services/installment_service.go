package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"time"

	"github.com/leonardosolari/dental-pay-tracker/internal/jobs"
	"github.com/leonardosolari/dental-pay-tracker/internal/ledger"
	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/leonardosolari/dental-pay-tracker/internal/repository"
	"github.com/leonardosolari/dental-pay-tracker/internal/statemachine"
	"github.com/leonardosolari/dental-pay-tracker/internal/storage"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UpdateInstallmentInput is a direct override of a single installment. It
// bypasses the plan reconciler on purpose: the clinic sometimes adjusts one
// row by hand after agreeing it with the patient.
type UpdateInstallmentInput struct {
	Amount  *decimal.Decimal
	DueDate *time.Time
}

type InstallmentService struct {
	repo     repository.InstallmentRepository
	storage  *storage.LocalStorage
	emailSvc *EmailService
	auditSvc *AuditService
	worker   *jobs.Worker
}

func NewInstallmentService(repo repository.InstallmentRepository, store *storage.LocalStorage, emailSvc *EmailService, auditSvc *AuditService, worker *jobs.Worker) *InstallmentService {
	return &InstallmentService{
		repo:     repo,
		storage:  store,
		emailSvc: emailSvc,
		auditSvc: auditSvc,
		worker:   worker,
	}
}

func (s *InstallmentService) FindByID(ctx context.Context, id uint) (*models.Installment, error) {
	installment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return installment, nil
}

func (s *InstallmentService) List(ctx context.Context, query *repository.ListQuery) ([]models.Installment, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *InstallmentService) FindByPayment(ctx context.Context, paymentID uint) ([]models.Installment, error) {
	return s.repo.FindByPayment(ctx, paymentID)
}

// Responses maps installments to their API shape, deriving each status
// against today's date.
func (s *InstallmentService) Responses(installments []models.Installment, today time.Time) []models.InstallmentResponse {
	responses := make([]models.InstallmentResponse, len(installments))
	for i, inst := range installments {
		responses[i] = inst.ToResponse(ledger.DeriveStatus(inst.State, inst.DueDate, today))
	}
	return responses
}

// Pay marks an installment as paid. The transition is guarded twice: the
// state machine executes pending→paid on the loaded row and rejects a second
// pay, and the conditional update in the repository rejects one that raced
// past it.
func (s *InstallmentService) Pay(ctx context.Context, id uint, paidAt time.Time, actorID uint, ip, userAgent string) (*models.Installment, error) {
	installment, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sm := statemachine.NewInstallmentFSM(installment)
	if err := sm.Pay(ctx); err != nil {
		return nil, ErrAlreadyPaid
	}

	rows, err := s.repo.MarkPaid(ctx, id, paidAt)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAlreadyPaid
	}

	installment, err = s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "PAY", "Installment", id,
		fmt.Sprintf("Rata %d/%d di %s incassata", installment.Number, installment.Count, installment.Amount.StringFixed(2)), ip, userAgent)

	if installment.Payment.Patient.Email != nil {
		patient := installment.Payment.Patient
		paid := *installment
		s.worker.EnqueueAsync(func(jobCtx context.Context) error {
			return s.emailSvc.SendPaymentConfirmation(jobCtx, &patient, &paid)
		})
	}
	return installment, nil
}

// Update applies a direct override to a single installment. The plan sum is
// not re-validated here: an override is an explicit decision to diverge from
// the even split.
func (s *InstallmentService) Update(ctx context.Context, id uint, input UpdateInstallmentInput, actorID uint, ip, userAgent string) (*models.Installment, error) {
	installment, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: l'importo della rata deve essere positivo", ErrValidation)
		}
		installment.Amount = *input.Amount
	}
	if input.DueDate != nil {
		installment.DueDate = *input.DueDate
	}

	if err := s.repo.Update(ctx, installment); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "UPDATE", "Installment", id,
		fmt.Sprintf("Rata %d/%d modificata manualmente", installment.Number, installment.Count), ip, userAgent)
	return installment, nil
}

// UploadReceipt stores a receipt file and links it to the installment.
func (s *InstallmentService) UploadReceipt(ctx context.Context, id uint, file multipart.File, header *multipart.FileHeader, actorID uint, ip, userAgent string) (*models.Installment, error) {
	installment, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if header.Size > storage.MaxReceiptSize {
		return nil, fmt.Errorf("%w: il file supera la dimensione massima consentita", ErrValidation)
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidReceiptTypes()[contentType] {
		return nil, fmt.Errorf("%w: tipo di file non supportato (%s)", ErrValidation, contentType)
	}

	oldPath := installment.ReceiptPath

	relPath, err := s.storage.Upload(file, header, "receipts")
	if err != nil {
		return nil, err
	}
	installment.ReceiptPath = &relPath

	if err := s.repo.Update(ctx, installment); err != nil {
		s.storage.Delete(relPath)
		return nil, err
	}
	if oldPath != nil {
		s.storage.Delete(*oldPath)
	}

	s.auditSvc.Log(ctx, actorID, "UPLOAD_RECEIPT", "Installment", id,
		fmt.Sprintf("Ricevuta caricata per la rata %d/%d", installment.Number, installment.Count), ip, userAgent)
	return installment, nil
}

// ReceiptFile opens the stored receipt for download.
func (s *InstallmentService) ReceiptFile(ctx context.Context, id uint) (*os.File, error) {
	installment, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if installment.ReceiptPath == nil {
		return nil, ErrNotFound
	}
	return s.storage.Download(*installment.ReceiptPath)
}
