package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrProofNotFound = errors.New("proof not uploaded")
)

// ValidationError marks client-correctable input problems. It is always
// returned before any storage is touched.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return e.Reason }

func errValidation(format string, args ...any) error {
	return ValidationError{Reason: fmt.Sprintf(format, args...)}
}
