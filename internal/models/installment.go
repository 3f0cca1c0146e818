package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment is one scheduled partial payment inside an installment-mode
// Payment. The only persisted progress field is State (pending/paid); the
// richer overdue/due-today/upcoming status is derived at read time and never
// written back.
type Installment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PaymentID   uint            `gorm:"not null;index:idx_installments_payment_number,unique" json:"payment_id"`
	Number      int             `gorm:"not null;index:idx_installments_payment_number,unique" json:"number"`
	Count       int             `gorm:"not null" json:"count"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	DueDate     time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	PaidDate    *time.Time      `json:"paid_date"`
	State       string          `gorm:"size:20;default:pending;not null;index" json:"state"`
	ReceiptPath *string         `json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Associations
	Payment Payment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
}

// TableName specifies the table name for Installment
func (Installment) TableName() string {
	return "installments"
}

// Stored installment state constants
const (
	InstallmentStatePending = "pending"
	InstallmentStatePaid    = "paid"
)

// Derived installment status constants
const (
	InstallmentStatusPaid     = "paid"
	InstallmentStatusOverdue  = "overdue"
	InstallmentStatusDueToday = "due_today"
	InstallmentStatusUpcoming = "upcoming"
)

// IsPaid returns true once the installment has been settled
func (i *Installment) IsPaid() bool {
	return i.State == InstallmentStatePaid
}

// MayPay returns true if the installment can transition to paid
func (i *Installment) MayPay() bool {
	return i.State == InstallmentStatePending
}

// InstallmentResponse is the JSON response format for installments. Status is
// the derived value computed by the caller for its reference date.
type InstallmentResponse struct {
	ID            uint            `json:"id"`
	PaymentID     uint            `json:"payment_id"`
	Number        int             `json:"number"`
	Count         int             `json:"count"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       string          `json:"due_date"`
	PaidDate      *time.Time      `json:"paid_date"`
	Status        string          `json:"status"`
	HasReceipt    bool            `json:"has_receipt"`
	PatientName   string          `json:"patient_name,omitempty"`
	TreatmentName *string         `json:"treatment_name,omitempty"`
}

// ToResponse converts Installment to InstallmentResponse with the given
// derived status.
func (i *Installment) ToResponse(status string) InstallmentResponse {
	resp := InstallmentResponse{
		ID:         i.ID,
		PaymentID:  i.PaymentID,
		Number:     i.Number,
		Count:      i.Count,
		Amount:     i.Amount,
		DueDate:    i.DueDate.Format("2006-01-02"),
		PaidDate:   i.PaidDate,
		Status:     status,
		HasReceipt: i.ReceiptPath != nil && *i.ReceiptPath != "",
	}

	if i.Payment.ID != 0 {
		resp.TreatmentName = i.Payment.TreatmentName
		if i.Payment.Patient.ID != 0 {
			resp.PatientName = i.Payment.Patient.FullName()
		}
	}

	return resp
}
