package ledger

import (
	"errors"

	"gitlab.com/yelinaung/expenditure-manager/internal/repository"
)

// ErrValidation marks input rejected before any store call.
var ErrValidation = errors.New("validation failed")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = repository.ErrNotFound

// ValidationError carries a user-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
