package deck

import (
	"errors"
	"fmt"
)

// Validation sentinels. Callers match them with errors.Is.
var (
	ErrInvalidFront        = errors.New("front must contain at least one non-whitespace character")
	ErrInvalidBack         = errors.New("back must contain at least one non-whitespace character")
	ErrDuplicateFront      = errors.New("a card with this front already exists")
	ErrInvalidDeckName     = errors.New("invalid deck name")
	ErrInvalidStudyOptions = errors.New("invalid study options")
	ErrCardNotInDeck       = errors.New("card is not part of this deck")
	ErrCorruptSnapshot     = errors.New("corrupt deck snapshot")
)

// ValidationError is a recoverable failure caused by user input.
type ValidationError struct {
	Field  string
	Value  string
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %q: %v: %s", e.Field, e.Value, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, value string, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Err: err}
}
