package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	RefreshToken RefreshTokenRepository
	Patient      PatientRepository
	Payment      PaymentRepository
	Installment  InstallmentRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		Patient:      NewPatientRepository(db),
		Payment:      NewPaymentRepository(db),
		Installment:  NewInstallmentRepository(db),
	}
}
