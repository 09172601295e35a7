package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/oksasatya/healthfirst-provider/internal/domain/entity"
	"github.com/oksasatya/healthfirst-provider/internal/domain/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS providers (
    id                  TEXT PRIMARY KEY,
    first_name          TEXT    NOT NULL,
    last_name           TEXT    NOT NULL,
    email               TEXT    NOT NULL COLLATE NOCASE UNIQUE,
    phone_number        TEXT    NOT NULL UNIQUE,
    password_hash       TEXT    NOT NULL,
    specialization      TEXT    NOT NULL,
    license_number      TEXT    NOT NULL UNIQUE,
    years_of_experience INTEGER NOT NULL CHECK (years_of_experience BETWEEN 0 AND 50),
    clinic_street       TEXT    NOT NULL,
    clinic_city         TEXT    NOT NULL,
    clinic_state        TEXT    NOT NULL,
    clinic_zip          TEXT    NOT NULL,
    verification_status TEXT    NOT NULL DEFAULT 'pending',
    is_active           INTEGER NOT NULL DEFAULT 1,
    created_at          TEXT    NOT NULL,
    updated_at          TEXT    NOT NULL
);`

const providerColumns = `id, first_name, last_name, email, phone_number, password_hash, specialization,
	license_number, years_of_experience, clinic_street, clinic_city, clinic_state, clinic_zip,
	verification_status, is_active, created_at, updated_at`

var uniqueFailedPattern = regexp.MustCompile(`UNIQUE constraint failed: ([\w., ]+)`)

// ProviderRepository stores providers in a local SQLite file. It is the
// fallback when the configured server backend is unreachable.
type ProviderRepository struct {
	db *sql.DB
}

// DSN builds a modernc.org/sqlite DSN for path with a busy timeout so
// concurrent writers wait instead of failing.
func DSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*ProviderRepository, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, err
	}
	// one writer at a time; SQLite serializes writes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &ProviderRepository{db: db}, nil
}

func (r *ProviderRepository) Create(ctx context.Context, p *entity.Provider) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO providers (`+providerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.PasswordHash, p.Specialization,
		p.LicenseNumber, p.YearsOfExperience, p.ClinicAddress.Street, p.ClinicAddress.City,
		p.ClinicAddress.State, p.ClinicAddress.Zip, string(p.VerificationStatus), p.IsActive,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert provider: %w", mapError(err))
	}
	return nil
}

func (r *ProviderRepository) FindBy(ctx context.Context, field repository.Field, value string) (*entity.Provider, error) {
	switch field {
	case repository.FieldEmail, repository.FieldPhoneNumber, repository.FieldLicenseNumber:
	default:
		return nil, fmt.Errorf("unsupported lookup field %q", field)
	}
	// email carries COLLATE NOCASE, so the comparison is case-insensitive
	row := r.db.QueryRowContext(ctx, `SELECT `+providerColumns+` FROM providers WHERE `+string(field)+` = ? LIMIT 1`, value)
	return scanProvider(row)
}

func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*entity.Provider, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = ?`, id)
	return scanProvider(row)
}

func (r *ProviderRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	return nil
}

func (r *ProviderRepository) Backend() string { return "sqlite" }

func (r *ProviderRepository) Close() error { return r.db.Close() }

func scanProvider(row *sql.Row) (*entity.Provider, error) {
	p := &entity.Provider{}
	var status, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.PhoneNumber, &p.PasswordHash,
		&p.Specialization, &p.LicenseNumber, &p.YearsOfExperience, &p.ClinicAddress.Street,
		&p.ClinicAddress.City, &p.ClinicAddress.State, &p.ClinicAddress.Zip, &status, &p.IsActive,
		&createdAt, &updatedAt); err != nil {
		return nil, mapError(err)
	}
	p.VerificationStatus = entity.VerificationStatus(status)
	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// mapError translates driver errors into repository errors.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &repository.DuplicateKeyError{Fields: uniqueFields(se.Error())}
		}
	}
	return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
}

// uniqueFields parses "UNIQUE constraint failed: providers.email, providers.phone_number".
func uniqueFields(msg string) []repository.Field {
	m := uniqueFailedPattern.FindStringSubmatch(msg)
	if m == nil {
		return nil
	}
	var out []repository.Field
	for _, col := range strings.Split(m[1], ",") {
		if f, ok := repository.FieldFromConstraint(strings.TrimSpace(col)); ok {
			out = append(out, f)
		}
	}
	return out
}

var _ repository.ProviderRepository = (*ProviderRepository)(nil)
