package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leonardosolari/dental-pay-tracker/internal/ledger"
	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/leonardosolari/dental-pay-tracker/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreatePaymentInput is what the clinic sends when registering a treatment
// payment. Exactly one of Count or Entries drives the plan shape for
// installment mode; lump sum payments carry neither.
type CreatePaymentInput struct {
	PatientID     uint
	TreatmentName *string
	Mode          string
	Total         decimal.Decimal
	Count         int
	StartDate     time.Time
	Entries       []ledger.Entry
}

type UpdatePaymentInput struct {
	TreatmentName *string
	Total         decimal.Decimal
}

type PaymentService struct {
	repo        repository.PaymentRepository
	patientRepo repository.PatientRepository
	auditSvc    *AuditService
}

func NewPaymentService(repo repository.PaymentRepository, patientRepo repository.PatientRepository, auditSvc *AuditService) *PaymentService {
	return &PaymentService{
		repo:        repo,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
	}
}

func (s *PaymentService) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.repo.FindByIDWithInstallments(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) FindByPatient(ctx context.Context, patientID uint) ([]models.Payment, error) {
	if _, err := s.patientRepo.FindByID(ctx, patientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.repo.FindByPatient(ctx, patientID)
}

func (s *PaymentService) List(ctx context.Context, query *repository.ListQuery) ([]models.Payment, int64, error) {
	return s.repo.List(ctx, query)
}

// Create registers a payment and, for installment mode, its whole plan in one
// transaction. Count mode splits the total evenly with the rounding remainder
// on the last installment; explicit mode takes the amounts as given but they
// must add up to the total.
func (s *PaymentService) Create(ctx context.Context, input CreatePaymentInput, actorID uint, ip, userAgent string) (*models.Payment, error) {
	if _, err := s.patientRepo.FindByID(ctx, input.PatientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !input.Total.IsPositive() {
		return nil, fmt.Errorf("%w: il totale deve essere positivo", ErrValidation)
	}

	payment := &models.Payment{
		PatientID:     input.PatientID,
		TreatmentName: input.TreatmentName,
		Mode:          input.Mode,
		Total:         input.Total,
	}

	switch input.Mode {
	case models.PaymentModeLumpSum:
		if err := s.repo.Create(ctx, payment); err != nil {
			return nil, err
		}

	case models.PaymentModeInstallment:
		installments, err := s.buildPlan(input)
		if err != nil {
			return nil, err
		}
		if err := s.repo.CreateWithInstallments(ctx, payment, installments); err != nil {
			return nil, err
		}
		payment.Installments = installments

	default:
		return nil, ErrInvalidMode
	}

	s.auditSvc.Log(ctx, actorID, "CREATE", "Payment", payment.ID,
		fmt.Sprintf("Pagamento di %s registrato (modalità %s)", payment.Total.StringFixed(2), payment.Mode), ip, userAgent)
	return payment, nil
}

func (s *PaymentService) buildPlan(input CreatePaymentInput) ([]models.Installment, error) {
	if len(input.Entries) > 0 {
		if input.Count > 0 {
			return nil, fmt.Errorf("%w: indicare il numero di rate oppure l'elenco esplicito, non entrambi", ErrValidation)
		}
		installments, err := ledger.BuildExplicit(input.Entries)
		if err != nil {
			return nil, err
		}
		sum := decimal.Zero
		for _, inst := range installments {
			sum = sum.Add(inst.Amount)
		}
		if !sum.Equal(input.Total) {
			return nil, fmt.Errorf("%w: la somma delle rate (%s) non corrisponde al totale (%s)",
				ledger.ErrInvalidSplit, sum.StringFixed(2), input.Total.StringFixed(2))
		}
		return installments, nil
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: la data della prima rata è obbligatoria", ErrValidation)
	}
	return ledger.Build(input.Total, input.Count, input.StartDate)
}

// UpdateTotal changes the payment total. When the payment has an installment
// plan the plan is reconciled in place: same number of installments, same due
// dates and states, amounts rewritten from the new total.
func (s *PaymentService) UpdateTotal(ctx context.Context, id uint, input UpdatePaymentInput, actorID uint, ip, userAgent string) (*models.Payment, error) {
	payment, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !input.Total.IsPositive() {
		return nil, fmt.Errorf("%w: il totale deve essere positivo", ErrValidation)
	}

	oldTotal := payment.Total
	payment.Total = input.Total
	if input.TreatmentName != nil {
		payment.TreatmentName = input.TreatmentName
	}

	if payment.IsInstallmentMode() && len(payment.Installments) > 0 {
		reconciled, err := ledger.Reconcile(payment.Installments, input.Total)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdateTotalWithInstallments(ctx, payment, reconciled); err != nil {
			return nil, err
		}
		payment.Installments = reconciled
	} else {
		if err := s.repo.Update(ctx, payment); err != nil {
			return nil, err
		}
	}

	s.auditSvc.Log(ctx, actorID, "UPDATE", "Payment", payment.ID,
		fmt.Sprintf("Totale pagamento aggiornato da %s a %s", oldTotal.StringFixed(2), payment.Total.StringFixed(2)), ip, userAgent)
	return payment, nil
}

func (s *PaymentService) Delete(ctx context.Context, id uint, actorID uint, ip, userAgent string) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actorID, "DELETE", "Payment", id,
		"Pagamento eliminato con le sue rate", ip, userAgent)
	return nil
}
