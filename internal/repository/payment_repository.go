package repository

import (
	"context"
	"fmt"

	"github.com/leonardosolari/dental-pay-tracker/internal/ledger"
	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository defines the interface for payment data access. The two
// *WithInstallments writers are the atomic boundaries of the plan engine: a
// payment and its installments hit the database together or not at all, and
// both run the defensive plan invariant checks before committing.
type PaymentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	FindByIDWithInstallments(ctx context.Context, id uint) (*models.Payment, error)
	FindByPatient(ctx context.Context, patientID uint) ([]models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	CreateWithInstallments(ctx context.Context, payment *models.Payment, installments []models.Installment) error
	Update(ctx context.Context, payment *models.Payment) error
	UpdateTotalWithInstallments(ctx context.Context, payment *models.Payment, installments []models.Installment) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Payment, int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Preload("Patient").First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByIDWithInstallments(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByPatient(ctx context.Context, patientID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Preload("Patient").
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// CreateWithInstallments inserts an installment-mode payment and its whole
// plan in one transaction. A crash between the two inserts can not leave an
// installment payment without installments.
func (r *paymentRepository) CreateWithInstallments(ctx context.Context, payment *models.Payment, installments []models.Installment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ledger.CheckInvariants(payment.Total, installments); err != nil {
			return err
		}

		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		for i := range installments {
			installments[i].PaymentID = payment.ID
		}
		if err := tx.Create(&installments).Error; err != nil {
			return err
		}

		payment.Installments = installments
		return nil
	})
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

// UpdateTotalWithInstallments writes a reconciled plan. The payment row and
// the plan rows are locked FOR UPDATE for the duration of the transaction, so
// two concurrent reconciliations of the same payment serialize and a racing
// pay blocks on the row lock. The reconciled slice the caller passes in is a
// snapshot loaded before the transaction: only the amount column is written
// from it, so a pay that committed in between keeps its state and paid date.
func (r *paymentRepository) UpdateTotalWithInstallments(ctx context.Context, payment *models.Payment, installments []models.Installment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, payment.ID).Error; err != nil {
			return err
		}

		if err := ledger.CheckInvariants(payment.Total, installments); err != nil {
			return err
		}

		var current []models.Installment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_id = ?", payment.ID).
			Order("number ASC").
			Find(&current).Error; err != nil {
			return err
		}

		amounts, err := planAmountWrites(current, installments)
		if err != nil {
			return err
		}
		for _, row := range current {
			if err := tx.Model(&models.Installment{}).
				Where("id = ?", row.ID).
				Update("amount", amounts[row.ID]).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Payment{}).
			Where("id = ?", payment.ID).
			Updates(map[string]interface{}{
				"total":          payment.Total,
				"treatment_name": payment.TreatmentName,
			}).Error
	})
}

// planAmountWrites maps each locked plan row to its reconciled amount. The
// caller's snapshot must describe the same rows that are in the database now;
// a plan that grew, shrank or was swapped since the snapshot is stale and the
// write is refused.
func planAmountWrites(current, reconciled []models.Installment) (map[uint]decimal.Decimal, error) {
	amounts := make(map[uint]decimal.Decimal, len(reconciled))
	for _, inst := range reconciled {
		amounts[inst.ID] = inst.Amount
	}
	if len(current) != len(reconciled) {
		return nil, fmt.Errorf("%w: il piano è cambiato durante la riconciliazione (%d rate su %d)",
			ledger.ErrInvariantViolation, len(current), len(reconciled))
	}
	for _, row := range current {
		if _, ok := amounts[row.ID]; !ok {
			return nil, fmt.Errorf("%w: rata %d assente dal piano riconciliato", ledger.ErrInvariantViolation, row.Number)
		}
	}
	return amounts, nil
}

// Delete removes a payment; the installments follow via ON DELETE CASCADE.
func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Payment{}, id).Error
}

func (r *paymentRepository) List(ctx context.Context, query *ListQuery) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Payment{})

	if query.Filters != nil {
		if val, ok := query.Filters["mode"]; ok && val != "" {
			db = db.Where("payments.mode = ?", val)
		}
		if val, ok := query.Filters["patient_id"]; ok && val != "" {
			db = db.Where("payments.patient_id = ?", val)
		}
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN patients ON patients.id = payments.patient_id").
			Where("patients.first_name ILIKE ? OR patients.last_name ILIKE ? OR payments.treatment_name ILIKE ?",
				search, search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		order := "payments." + query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("payments.created_at DESC")
	}

	err := db.Preload("Patient").
		Offset(query.Offset()).Limit(query.PerPage).
		Find(&payments).Error
	return payments, total, err
}
