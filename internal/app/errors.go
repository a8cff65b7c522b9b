package app

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks errors caused by bad caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates that the addressed record does not exist.
	ErrNotFound = errors.New("not found")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
