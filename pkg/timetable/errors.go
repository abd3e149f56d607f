package timetable

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed input detected before compilation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrModelInfeasible marks a model proven infeasible before any search,
	// i.e. some session has no candidate triple left after static pruning.
	ErrModelInfeasible = errors.New("model statically infeasible")
)

type InputError struct {
	Field  string
	Reason string
}

func (err InputError) Error() string {
	return fmt.Sprintf("invalid input: %v: %v", err.Field, err.Reason)
}

func (err InputError) Unwrap() error {
	return ErrInvalidInput
}

type ModelInfeasibleError struct {
	Session uint64
	Reason  string
}

func (err ModelInfeasibleError) Error() string {
	return fmt.Sprintf("session %v cannot be scheduled: %v", err.Session, err.Reason)
}

func (err ModelInfeasibleError) Unwrap() error {
	return ErrModelInfeasible
}
