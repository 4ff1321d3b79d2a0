package types

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is matched by every InvalidArgumentError via errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError reports an input that violates a calculator's contract.
// It is distinct from "no opportunity" results, which are not errors.
type InvalidArgumentError struct {
	Field  string  // Input field name (e.g. "bankroll")
	Value  float64 // Offending value
	Reason string  // Human-readable constraint
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s (%g): %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewInvalidArgument creates an InvalidArgumentError.
func NewInvalidArgument(field string, value float64, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}
