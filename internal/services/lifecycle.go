package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/models"
)

// Actor tells the lifecycle who requests a transition.
type Actor int

const (
	ActorUser Actor = iota
	// ActorSystem is payment reconciliation; it alone may enter Paid.
	ActorSystem
)

// ErrInvalidTransition is wrapped by every rejected transition.
var ErrInvalidTransition = errors.New("invalid status transition")

// Lifecycle validates order status transitions.
type Lifecycle struct {
	transitions map[models.OrderStatus][]models.OrderStatus
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		transitions: map[models.OrderStatus][]models.OrderStatus{
			models.StatusReceived:  {models.StatusAccepted, models.StatusDeclined, models.StatusCancelled},
			models.StatusAccepted:  {models.StatusPaid, models.StatusCancelled},
			models.StatusPaid:      {models.StatusOnProcess, models.StatusCancelled},
			models.StatusOnProcess: {models.StatusCompleted, models.StatusCancelled},
			models.StatusCompleted: {},
			models.StatusDeclined:  {},
			models.StatusCancelled: {},
		},
	}
}

// CanTransition reports whether from -> to is an edge. Staying put is always allowed.
func (l *Lifecycle) CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, s := range l.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (l *Lifecycle) IsTerminal(s models.OrderStatus) bool {
	next, ok := l.transitions[s]
	return ok && len(next) == 0
}

// Allowed returns the statuses reachable from `from` in one step.
func (l *Lifecycle) Allowed(from models.OrderStatus) []models.OrderStatus {
	out := make([]models.OrderStatus, len(l.transitions[from]))
	copy(out, l.transitions[from])
	return out
}

// Transition moves order to status `to` on behalf of actor.
func (l *Lifecycle) Transition(order *models.Order, to models.OrderStatus, actor Actor) error {
	if !to.Valid() {
		return apperr.InvalidField("status", "invalid_choice")
	}
	if order.Status == to {
		return nil
	}
	if to == models.StatusPaid && actor != ActorSystem {
		return &apperr.Error{
			Kind:   apperr.ErrValidation,
			Code:   "status_system_only",
			Reason: "The paid status is set by payment confirmation.",
			Err:    ErrInvalidTransition,
		}
	}
	if !l.CanTransition(order.Status, to) {
		return &apperr.Error{
			Kind:   apperr.ErrValidation,
			Code:   "invalid_transition",
			Reason: l.transitionReason(order.Status, to),
			Err:    ErrInvalidTransition,
		}
	}
	order.Status = to
	return nil
}

func (l *Lifecycle) transitionReason(from, to models.OrderStatus) string {
	reason := fmt.Sprintf("Cannot move an order from %s to %s.", from.Label(), to.Label())
	next := l.Allowed(from)
	if len(next) == 0 {
		return reason + " " + from.Label() + " orders are final."
	}
	labels := make([]string, len(next))
	for i, s := range next {
		labels[i] = s.Label()
	}
	return reason + " Allowed: " + strings.Join(labels, ", ") + "."
}
