// Package errors provides custom error types for the state store.

package errors

import "fmt"

type (
	// ValidationError reports a rejected field of a submission; the caller
	// may fix the field and resubmit.
	ValidationError struct {
		Field string
		Msg   string
	}
	// EvaluationCompletedError reports an attempt to re-complete an
	// evaluation that already went through its one-shot transition.
	EvaluationCompletedError struct {
		ID string
	}
	// NoActiveUserError reports a state mutation attempted with no user set.
	NoActiveUserError struct{}
	// NoActiveEvaluationError reports a stage submission with no evaluation
	// in progress for the item.
	NoActiveEvaluationError struct {
		ProductID string
	}
	// CooldownActiveError reports an action blocked by a cooldown window.
	CooldownActiveError struct {
		DaysLeft int
	}
	// InsufficientFundsError reports a withdrawal exceeding the balance.
	InsufficientFundsError struct {
		Available string
		Requested string
	}
	// StoreFoundNilArgument reports a nil dependency passed to the store.
	StoreFoundNilArgument struct {
		Msg string
	}
)

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *EvaluationCompletedError) Error() string {
	return fmt.Sprintf("%s: evaluation was already completed", e.ID)
}

func (e *NoActiveUserError) Error() string {
	return "no active user is set in the store"
}

func (e *NoActiveEvaluationError) Error() string {
	return fmt.Sprintf("%s: no evaluation in progress", e.ProductID)
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("action is blocked for %d more day(s)", e.DaysLeft)
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("not enough funds are available, present - %s, required - %s", e.Available, e.Requested)
}

func (e *StoreFoundNilArgument) Error() string {
	return e.Msg
}
