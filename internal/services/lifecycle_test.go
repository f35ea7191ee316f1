package services

import (
	"testing"

	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleEdges(t *testing.T) {
	l := NewLifecycle()
	all := []models.OrderStatus{"R", "A", "D", "P", "O", "C", "X"}
	edges := map[string]bool{
		"RA": true, "RD": true, "RX": true,
		"AP": true, "AX": true,
		"PO": true, "PX": true,
		"OC": true, "OX": true,
	}
	for _, from := range all {
		for _, to := range all {
			want := from == to || edges[string(from)+string(to)]
			assert.Equal(t, want, l.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestLifecycleTerminal(t *testing.T) {
	l := NewLifecycle()
	for _, s := range []models.OrderStatus{"C", "D", "X"} {
		assert.True(t, l.IsTerminal(s), s)
	}
	for _, s := range []models.OrderStatus{"R", "A", "P", "O"} {
		assert.False(t, l.IsTerminal(s), s)
	}
	assert.ElementsMatch(t, []models.OrderStatus{"A", "D", "X"}, l.Allowed("R"))
}

func TestLifecycleTransition(t *testing.T) {
	l := NewLifecycle()

	o := &models.Order{Status: models.StatusReceived}
	require.NoError(t, l.Transition(o, models.StatusAccepted, ActorUser))
	assert.Equal(t, models.StatusAccepted, o.Status)

	err := l.Transition(o, models.StatusPaid, ActorUser)
	require.ErrorIs(t, err, apperr.ErrValidation)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.StatusAccepted, o.Status)

	require.NoError(t, l.Transition(o, models.StatusPaid, ActorSystem))
	assert.Equal(t, models.StatusPaid, o.Status)

	require.NoError(t, l.Transition(o, models.StatusPaid, ActorUser), "same status is a no-op")

	done := &models.Order{Status: models.StatusCompleted}
	require.ErrorIs(t, l.Transition(done, models.StatusReceived, ActorUser), ErrInvalidTransition)

	require.ErrorIs(t, l.Transition(o, "Z", ActorUser), apperr.ErrValidation)
}

func TestLifecycleTransitionReason(t *testing.T) {
	l := NewLifecycle()

	err := l.Transition(&models.Order{Status: models.StatusReceived}, models.StatusCompleted, ActorUser)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "invalid_transition", ae.Code)
	assert.Equal(t, "Cannot move an order from Received to Completed. Allowed: Accepted, Declined, Cancelled.", ae.Reason)

	err = l.Transition(&models.Order{Status: models.StatusDeclined}, models.StatusAccepted, ActorUser)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Cannot move an order from Declined to Accepted. Declined orders are final.", ae.Reason)
}
