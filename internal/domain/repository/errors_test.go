package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDuplicateKeyError_Is(t *testing.T) {
	err := fmt.Errorf("insert provider: %w", &DuplicateKeyError{Fields: []Field{FieldEmail, FieldLicenseNumber}})

	assert.True(t, errors.Is(err, ErrDuplicateKey))
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, "insert provider: duplicate key: email, license_number", err.Error())

	var dup *DuplicateKeyError
	assert.True(t, errors.As(err, &dup))
	assert.Len(t, dup.Fields, 2)
}

func TestFieldFromConstraint(t *testing.T) {
	cases := map[string]Field{
		"providers_email_key": FieldEmail,
		"email_unique":        FieldEmail,
		"UNIQUE constraint failed: providers.phone_number": FieldPhoneNumber,
		"providers_license_number_key":                     FieldLicenseNumber,
	}
	for in, want := range cases {
		got, ok := FieldFromConstraint(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := FieldFromConstraint("providers_pkey")
	assert.False(t, ok)
}
