package application

import (
	"errors"
	"strings"

	"github.com/oksasatya/healthfirst-provider/pkg/validation"
)

var (
	// ErrStorageUnavailable is returned when the backend cannot be reached or a
	// write fails for infrastructure reasons. Callers see a generic message.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrProviderNotFound   = errors.New("provider not found")
	// ErrNoAvailabilityKeys is returned by CheckAvailability when no key was given.
	ErrNoAvailabilityKeys = errors.New("at least one of email, phone_number or license_number is required")
)

// ValidationError carries every failing field of a registration payload.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "validation failed: " + strings.Join(names, ", ")
}

// ConflictError names the unique fields already held by another provider.
type ConflictError struct {
	Fields []string
}

func (e *ConflictError) Error() string {
	return "already registered: " + strings.Join(e.Fields, ", ")
}
