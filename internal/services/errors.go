package services

import (
	"errors"

	"github.com/leonardosolari/dental-pay-tracker/internal/ledger"
)

// Common service errors. The split/invariant sentinels are re-exported from
// the ledger package so callers can match on one taxonomy.
var (
	ErrNotFound        = errors.New("record non trovato")
	ErrInvalidPassword = errors.New("password non valida")
	ErrUnauthorized    = errors.New("non autorizzato")
	ErrAlreadyPaid     = errors.New("rata già pagata")
	ErrInvalidMode     = errors.New("modalità di pagamento non valida")
	ErrValidation      = errors.New("dati non validi")

	ErrInvalidSplit       = ledger.ErrInvalidSplit
	ErrInvariantViolation = ledger.ErrInvariantViolation
)
