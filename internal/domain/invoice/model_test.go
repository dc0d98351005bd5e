package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pharmaledger/internal/core/apperror"
)

func TestState_Transitions(t *testing.T) {
	assert.True(t, StateDraft.CanTransitionTo(StateCreated))
	assert.True(t, StateCreated.CanTransitionTo(StateEdited))
	assert.True(t, StateEdited.CanTransitionTo(StateEdited))
	assert.True(t, StateEdited.CanTransitionTo(StateDeleted))
	assert.True(t, StateCreated.CanTransitionTo(StateDeleted))

	assert.False(t, StateDraft.CanTransitionTo(StateEdited))
	assert.False(t, StateCreated.CanTransitionTo(StateCreated))
	assert.False(t, StateDeleted.CanTransitionTo(StateEdited))
	assert.False(t, StateDeleted.CanTransitionTo(StateDeleted))

	inv := &Invoice{State: StateDeleted}
	err := inv.transition(StateEdited)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
	assert.Equal(t, StateDeleted, inv.State)
}

func TestInvoice_PaymentStatus(t *testing.T) {
	inv := &Invoice{TotalInvoice: decimal.NewFromInt(100000), Status: StatusUnpaid}

	inv.ApplyPayment(decimal.NewFromInt(40000))
	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.Equal(t, "60000", inv.Outstanding().String())

	inv.ApplyPayment(decimal.NewFromInt(60000))
	assert.True(t, inv.IsPaid())
	assert.True(t, inv.Outstanding().IsZero())

	inv.RevertPayment(decimal.NewFromInt(40000))
	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.Equal(t, "60000", inv.TotalPay.String())
}

func TestInvoice_OverpaymentSettles(t *testing.T) {
	inv := &Invoice{TotalInvoice: decimal.NewFromInt(100), Status: "partial"}
	inv.ApplyPayment(decimal.NewFromInt(150))
	assert.True(t, inv.IsPaid())
	assert.True(t, inv.Outstanding().IsZero())
}

func TestLine_TotalPcs(t *testing.T) {
	assert.Equal(t, int64(24), (&Line{QtyPcs: 12, QtyBox: 2}).TotalPcs())
}
