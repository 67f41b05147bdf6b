package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"food-delivery-platform/auth"
	"food-delivery-platform/models"
)

// Transition defines a valid state change
type Transition struct {
	From models.OrderStatus `json:"from"`
	To   models.OrderStatus `json:"to"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Staff accepts or rejects a new order
	{From: models.StatusPending, To: models.StatusConfirmed},
	{From: models.StatusPending, To: models.StatusCanceled},
	// Kitchen starts preparing
	{From: models.StatusConfirmed, To: models.StatusPreparing},
	{From: models.StatusConfirmed, To: models.StatusCanceled},
	// Order leaves the kitchen
	{From: models.StatusPreparing, To: models.StatusOutForDelivery},
	{From: models.StatusPreparing, To: models.StatusCanceled},
	// Handed to the customer
	{From: models.StatusOutForDelivery, To: models.StatusDelivered},
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[Transition]bool {
	m := make(map[Transition]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

// ErrActorNotAllowed is returned when the caller's role may not change order status at all
var ErrActorNotAllowed = errors.New("your role is not allowed to change order status")

// TransitionError names an attempted pair that is not in the table
type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s is not allowed. Valid transitions from %s are: %s",
		e.From, e.To, e.From, describeValidFrom(e.From))
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// IsTerminal reports whether no transition leaves status
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// Authorize is the role gate, applied before the table is consulted
func Authorize(role models.UserRole) error {
	if !auth.Can(role, auth.CapTransitionOrder) {
		return ErrActorNotAllowed
	}
	return nil
}

// CanTransition checks the table only
func CanTransition(from, to models.OrderStatus) error {
	if transitionMap[Transition{From: from, To: to}] {
		return nil
	}
	return &TransitionError{From: from, To: to}
}

// Check runs the role gate and then the table
func Check(role models.UserRole, from, to models.OrderStatus) error {
	if err := Authorize(role); err != nil {
		return err
	}
	return CanTransition(from, to)
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}

// TerminalStates lists states with no outgoing transition
func TerminalStates() []models.OrderStatus {
	var out []models.OrderStatus
	for _, s := range models.AllStatuses {
		if IsTerminal(s) {
			out = append(out, s)
		}
	}
	return out
}
