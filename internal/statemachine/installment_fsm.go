package statemachine

import (
	"context"
	"fmt"

	"github.com/leonardosolari/dental-pay-tracker/internal/models"
	"github.com/looplab/fsm"
)

// EventPay is the only transition an installment knows.
const EventPay = "pay"

// InstallmentFSM wraps an installment with its state machine. The lifecycle
// is deliberately tiny: pending → paid, one way, exactly once. A second pay
// attempt is a rejected transition, not a no-op.
type InstallmentFSM struct {
	installment *models.Installment
	fsm         *fsm.FSM
}

// NewInstallmentFSM creates a new installment state machine
func NewInstallmentFSM(installment *models.Installment) *InstallmentFSM {
	ifsm := &InstallmentFSM{
		installment: installment,
	}

	ifsm.fsm = fsm.NewFSM(
		installment.State,
		fsm.Events{
			{Name: EventPay, Src: []string{models.InstallmentStatePending}, Dst: models.InstallmentStatePaid},
		},
		fsm.Callbacks{},
	)

	return ifsm
}

// Pay transitions the installment to paid
func (i *InstallmentFSM) Pay(ctx context.Context) error {
	if !i.installment.MayPay() {
		return fmt.Errorf("installment cannot be paid in current state: %s", i.installment.State)
	}

	if err := i.fsm.Event(ctx, EventPay); err != nil {
		return fmt.Errorf("failed to pay installment: %w", err)
	}

	i.installment.State = i.Current()
	return nil
}

// Current returns the current state
func (i *InstallmentFSM) Current() string {
	return i.fsm.Current()
}

// Can checks if a transition is possible
func (i *InstallmentFSM) Can(event string) bool {
	return i.fsm.Can(event)
}
