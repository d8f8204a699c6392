package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the store, session and API layers.
var (
	ErrValidation     = errors.New("validation failed")
	ErrCatalogMissing = errors.New("catalog missing")
	ErrNotFound       = errors.New("not found")
	ErrCatalogInUse   = errors.New("catalog entry in use")
	ErrDuplicateName  = errors.New("name already exists")
)

// ValidationError is a user-facing input error. It matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidationErrorf formats a ValidationError.
func ValidationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// CatalogMissingError is returned when an item cannot be created because at
// least one reference catalog is empty. It matches both ErrValidation and
// ErrCatalogMissing.
type CatalogMissingError struct {
	Missing []CatalogKind
}

func (e *CatalogMissingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		names[i] = string(k)
	}
	return "creating inventory items not possible yet: add at least one " + strings.Join(names, ", ")
}

func (e *CatalogMissingError) Is(target error) bool {
	return target == ErrValidation || target == ErrCatalogMissing
}
