package repository

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup matches no provider.
	ErrNotFound = errors.New("provider not found")
	// ErrUnavailable wraps connectivity and infrastructure failures of a backend.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrDuplicateKey matches any *DuplicateKeyError through errors.Is.
	ErrDuplicateKey = errors.New("duplicate key")
)

// DuplicateKeyError reports a unique constraint violation at write time.
// Fields may be empty when the backend could not name the constraint.
type DuplicateKeyError struct {
	Fields []Field
}

func (e *DuplicateKeyError) Error() string {
	if len(e.Fields) == 0 {
		return ErrDuplicateKey.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, string(f))
	}
	return ErrDuplicateKey.Error() + ": " + strings.Join(names, ", ")
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// FieldFromConstraint maps a constraint, index or column name to a uniqueness key.
// It matches on substrings so "providers_email_key", "email_unique" and
// "providers.email" all resolve to FieldEmail.
func FieldFromConstraint(name string) (Field, bool) {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "license"):
		return FieldLicenseNumber, true
	case strings.Contains(n, "phone"):
		return FieldPhoneNumber, true
	case strings.Contains(n, "email"):
		return FieldEmail, true
	}
	return "", false
}
