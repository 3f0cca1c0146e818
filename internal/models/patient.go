package models

import (
	"strings"
	"time"
)

// Patient represents a patient of the practice
type Patient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:80;not null" json:"first_name"`
	LastName  string    `gorm:"size:80;not null" json:"last_name"`
	Email     *string   `gorm:"size:255;index" json:"email"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Payments []Payment `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

// TableName specifies the table name for Patient
func (Patient) TableName() string {
	return "patients"
}

// FullName returns "FirstName LastName"
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PatientResponse is the JSON response format for patients
type PatientResponse struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts Patient to PatientResponse
func (p *Patient) ToResponse() PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		FullName:  p.FullName(),
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
	}
}
