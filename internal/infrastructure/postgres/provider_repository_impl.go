package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/healthfirst-provider/internal/domain/entity"
	"github.com/oksasatya/healthfirst-provider/internal/domain/repository"
)

const (
	pgUniqueViolation = "23505"
	pgInvalidText     = "22P02"
)

const providerColumns = `id, first_name, last_name, email, phone_number, password_hash, specialization,
	license_number, years_of_experience, clinic_street, clinic_city, clinic_state, clinic_zip,
	verification_status, is_active, created_at, updated_at`

type ProviderRepository struct {
	pool *pgxpool.Pool
}

func NewProviderRepository(pool *pgxpool.Pool) *ProviderRepository {
	return &ProviderRepository{pool: pool}
}

func (r *ProviderRepository) Create(ctx context.Context, p *entity.Provider) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO providers (id, first_name, last_name, email, phone_number, password_hash, specialization,
			license_number, years_of_experience, clinic_street, clinic_city, clinic_state, clinic_zip,
			verification_status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`, p.ID, p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.PasswordHash, p.Specialization,
		p.LicenseNumber, p.YearsOfExperience, p.ClinicAddress.Street, p.ClinicAddress.City,
		p.ClinicAddress.State, p.ClinicAddress.Zip, string(p.VerificationStatus), p.IsActive)

	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert provider: %w", mapError(err))
	}
	return nil
}

func (r *ProviderRepository) FindBy(ctx context.Context, field repository.Field, value string) (*entity.Provider, error) {
	var where string
	switch field {
	case repository.FieldEmail:
		where = "lower(email) = lower($1)"
	case repository.FieldPhoneNumber:
		where = "phone_number = $1"
	case repository.FieldLicenseNumber:
		where = "license_number = $1"
	default:
		return nil, fmt.Errorf("unsupported lookup field %q", field)
	}
	row := r.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM providers WHERE `+where+` LIMIT 1`, value)
	return scanProvider(row)
}

func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*entity.Provider, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id)
	return scanProvider(row)
}

func (r *ProviderRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	return nil
}

func (r *ProviderRepository) Backend() string { return "postgresql" }

func (r *ProviderRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanProvider(row pgx.Row) (*entity.Provider, error) {
	p := &entity.Provider{}
	var status string
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.PhoneNumber, &p.PasswordHash,
		&p.Specialization, &p.LicenseNumber, &p.YearsOfExperience, &p.ClinicAddress.Street,
		&p.ClinicAddress.City, &p.ClinicAddress.State, &p.ClinicAddress.Zip, &status, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	p.VerificationStatus = entity.VerificationStatus(status)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// mapError translates pgx errors into repository errors.
func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			dup := &repository.DuplicateKeyError{}
			if f, ok := repository.FieldFromConstraint(pgErr.ConstraintName); ok {
				dup.Fields = []repository.Field{f}
			}
			return dup
		case pgInvalidText:
			return repository.ErrNotFound
		}
	}
	return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
}

var _ repository.ProviderRepository = (*ProviderRepository)(nil)
