package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/healthfirst-provider/internal/domain/repository"
)

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgInvalidText}), repository.ErrNotFound)

	err := mapError(fmt.Errorf("scan: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "providers_license_number_key"}))
	var dup *repository.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, []repository.Field{repository.FieldLicenseNumber}, dup.Fields)

	err = mapError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "providers_pkey"})
	require.ErrorAs(t, err, &dup)
	assert.Empty(t, dup.Fields)

	err = mapError(errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, repository.ErrUnavailable)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
}
