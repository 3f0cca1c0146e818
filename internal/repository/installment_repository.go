package repository

import (
	"context"
	"time"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"gorm.io/gorm"
)

// InstallmentRepository defines the interface for installment data access
type InstallmentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Installment, error)
	FindByPayment(ctx context.Context, paymentID uint) ([]models.Installment, error)
	List(ctx context.Context, query *ListQuery) ([]models.Installment, int64, error)
	FindOverdue(ctx context.Context, today time.Time) ([]models.Installment, error)
	Update(ctx context.Context, installment *models.Installment) error
	MarkPaid(ctx context.Context, id uint, paidAt time.Time) (int64, error)
}

type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) FindByID(ctx context.Context, id uint) (*models.Installment, error) {
	var installment models.Installment
	err := r.db.WithContext(ctx).
		Preload("Payment").
		Preload("Payment.Patient").
		First(&installment, id).Error
	if err != nil {
		return nil, err
	}
	return &installment, nil
}

func (r *installmentRepository) FindByPayment(ctx context.Context, paymentID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("number ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) List(ctx context.Context, query *ListQuery) ([]models.Installment, int64, error) {
	var installments []models.Installment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Installment{})

	if query.Filters != nil {
		if val, ok := query.Filters["state"]; ok && val != "" {
			db = db.Where("installments.state = ?", val)
		}
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("JOIN payments ON payments.id = installments.payment_id").
			Joins("JOIN patients ON patients.id = payments.patient_id").
			Where("patients.first_name ILIKE ? OR patients.last_name ILIKE ?", search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Payment").
		Preload("Payment.Patient").
		Order("installments.due_date ASC").
		Offset(query.Offset()).Limit(query.PerPage).
		Find(&installments).Error
	return installments, total, err
}

// FindOverdue returns pending installments whose due date is strictly before
// today, with payment and patient preloaded for the reminder emails.
func (r *installmentRepository) FindOverdue(ctx context.Context, today time.Time) ([]models.Installment, error) {
	var installments []models.Installment
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	err := r.db.WithContext(ctx).
		Where("state = ? AND due_date < ?", models.InstallmentStatePending, day).
		Preload("Payment").
		Preload("Payment.Patient").
		Order("due_date ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) Update(ctx context.Context, installment *models.Installment) error {
	return r.db.WithContext(ctx).Save(installment).Error
}

// MarkPaid flips a single pending installment to paid and stamps the paid
// date in one guarded UPDATE. The state predicate makes the write atomic:
// whichever of two racing pay calls runs second matches zero rows, and the
// returned count lets the caller report the double pay.
func (r *installmentRepository) MarkPaid(ctx context.Context, id uint, paidAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("id = ? AND state = ?", id, models.InstallmentStatePending).
		Updates(map[string]interface{}{
			"state":     models.InstallmentStatePaid,
			"paid_date": paidAt,
		})
	return result.RowsAffected, result.Error
}
