package application

import (
	"strings"

	"github.com/google/uuid"

	"github.com/oksasatya/healthfirst-provider/internal/domain/entity"
	"github.com/oksasatya/healthfirst-provider/pkg/validation"
)

type AddressInput struct {
	Street string `json:"street" validate:"required,max=200"`
	City   string `json:"city" validate:"required,max=100"`
	State  string `json:"state" validate:"required,max=50"`
	Zip    string `json:"zip" validate:"required,zip"`
}

// RegisterProviderInput is the registration payload. YearsOfExperience and
// ClinicAddress are pointers so a missing value is distinguishable from zero.
type RegisterProviderInput struct {
	FirstName         string        `json:"first_name" validate:"required,min=2,max=50,personname"`
	LastName          string        `json:"last_name" validate:"required,min=2,max=50,personname"`
	Email             string        `json:"email" validate:"required,max=254,email"`
	PhoneNumber       string        `json:"phone_number" validate:"required,e164phone"`
	Password          string        `json:"password" validate:"required,strongpwd"`
	ConfirmPassword   string        `json:"confirm_password" validate:"required,eqfield=Password"`
	Specialization    string        `json:"specialization" validate:"required,specialization"`
	LicenseNumber     string        `json:"license_number" validate:"required,max=50,license"`
	YearsOfExperience *int          `json:"years_of_experience" validate:"required,min=0,max=50"`
	ClinicAddress     *AddressInput `json:"clinic_address" validate:"required"`

	// DecodeErrors holds fields whose JSON value had the wrong type. They are
	// reported together with the rule failures of the remaining fields.
	DecodeErrors []validation.FieldError `json:"-"`
}

// Normalize trims text fields, lower-cases the email, upper-cases the license
// number and applies the canonical casing of a predefined specialization.
// Passwords are left untouched.
func (in *RegisterProviderInput) Normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.LicenseNumber = strings.ToUpper(strings.TrimSpace(in.LicenseNumber))
	in.Specialization = strings.TrimSpace(in.Specialization)
	if canon, ok := validation.CanonicalSpecialization(in.Specialization); ok {
		in.Specialization = canon
	}
	if a := in.ClinicAddress; a != nil {
		a.Street = strings.TrimSpace(a.Street)
		a.City = strings.TrimSpace(a.City)
		a.State = strings.TrimSpace(a.State)
		a.Zip = strings.TrimSpace(a.Zip)
	}
}

// toEntity builds a new pending provider. Call only after validation passed.
func (in *RegisterProviderInput) toEntity(digest string) *entity.Provider {
	return &entity.Provider{
		ID:                uuid.NewString(),
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Email:             in.Email,
		PhoneNumber:       in.PhoneNumber,
		PasswordHash:      digest,
		Specialization:    in.Specialization,
		LicenseNumber:     in.LicenseNumber,
		YearsOfExperience: *in.YearsOfExperience,
		ClinicAddress: entity.Address{
			Street: in.ClinicAddress.Street,
			City:   in.ClinicAddress.City,
			State:  in.ClinicAddress.State,
			Zip:    in.ClinicAddress.Zip,
		},
		VerificationStatus: entity.VerificationPending,
		IsActive:           true,
	}
}

// ProviderView is the public representation of a provider. It never carries
// the password digest.
type ProviderView struct {
	ID                 string         `json:"id"`
	FirstName          string         `json:"first_name"`
	LastName           string         `json:"last_name"`
	Email              string         `json:"email"`
	PhoneNumber        string         `json:"phone_number"`
	Specialization     string         `json:"specialization"`
	LicenseNumber      string         `json:"license_number"`
	YearsOfExperience  int            `json:"years_of_experience"`
	ClinicAddress      entity.Address `json:"clinic_address"`
	VerificationStatus string         `json:"verification_status"`
	IsActive           bool           `json:"is_active"`
	CreatedAt          string         `json:"created_at"`
	UpdatedAt          string         `json:"updated_at"`
}

func NewProviderView(p *entity.Provider) *ProviderView {
	return &ProviderView{
		ID:                 p.ID,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Email:              p.Email,
		PhoneNumber:        p.PhoneNumber,
		Specialization:     p.Specialization,
		LicenseNumber:      p.LicenseNumber,
		YearsOfExperience:  p.YearsOfExperience,
		ClinicAddress:      p.ClinicAddress,
		VerificationStatus: string(p.VerificationStatus),
		IsActive:           p.IsActive,
		CreatedAt:          formatTime(p.CreatedAt),
		UpdatedAt:          formatTime(p.UpdatedAt),
	}
}
