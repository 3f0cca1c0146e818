package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/google/uuid"
)

// Payment represents an amount owed by a patient, settled either as one lump
// sum or through a numbered sequence of installments.
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	GUID          string          `gorm:"size:36;uniqueIndex" json:"guid"`
	PatientID     uint            `gorm:"not null;index" json:"patient_id"`
	TreatmentName *string         `gorm:"size:120" json:"treatment_name"`
	Mode          string          `gorm:"size:20;not null" json:"mode"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Associations
	Patient      Patient       `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Installments []Installment `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"installments,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payment mode constants. Mode is fixed at creation; there is no transition
// between lump sum and installment plans.
const (
	PaymentModeLumpSum     = "lump_sum"
	PaymentModeInstallment = "installment"
)

// BeforeCreate hook assigns the public GUID
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.GUID == "" {
		p.GUID = uuid.New().String()
	}
	return nil
}

// IsInstallmentMode returns true when the payment owns an installment plan
func (p *Payment) IsInstallmentMode() bool {
	return p.Mode == PaymentModeInstallment
}

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID            uint            `json:"id"`
	GUID          string          `json:"guid"`
	PatientID     uint            `json:"patient_id"`
	PatientName   string          `json:"patient_name,omitempty"`
	TreatmentName *string         `json:"treatment_name"`
	Mode          string          `json:"mode"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	resp := PaymentResponse{
		ID:            p.ID,
		GUID:          p.GUID,
		PatientID:     p.PatientID,
		TreatmentName: p.TreatmentName,
		Mode:          p.Mode,
		Total:         p.Total,
		CreatedAt:     p.CreatedAt,
	}

	if p.Patient.ID != 0 {
		resp.PatientName = p.Patient.FullName()
	}

	return resp
}
