package statemachine

import (
	"context"
	"testing"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallmentFSM_Pay(t *testing.T) {
	installment := &models.Installment{State: models.InstallmentStatePending}
	fsm := NewInstallmentFSM(installment)

	assert.True(t, fsm.Can(EventPay))

	err := fsm.Pay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.InstallmentStatePaid, installment.State)
	assert.Equal(t, models.InstallmentStatePaid, fsm.Current())
}

func TestInstallmentFSM_PayTwiceRejected(t *testing.T) {
	installment := &models.Installment{State: models.InstallmentStatePending}
	fsm := NewInstallmentFSM(installment)

	require.NoError(t, fsm.Pay(context.Background()))

	err := fsm.Pay(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.InstallmentStatePaid, installment.State)
}

func TestInstallmentFSM_PaidCannotPay(t *testing.T) {
	installment := &models.Installment{State: models.InstallmentStatePaid}
	fsm := NewInstallmentFSM(installment)

	assert.False(t, fsm.Can(EventPay))
}
