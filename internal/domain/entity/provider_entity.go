package entity

import (
	"time"
)

// VerificationStatus tracks the manual credential review of a provider.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Address is the clinic address value object; it has no identity of its own.
type Address struct {
	Street string `json:"street" bson:"street"`
	City   string `json:"city" bson:"city"`
	State  string `json:"state" bson:"state"`
	Zip    string `json:"zip" bson:"zip"`
}

// Provider is the aggregate root of the registration domain.
// PasswordHash holds the bcrypt digest; the raw password never reaches this type.
type Provider struct {
	ID                 string
	FirstName          string
	LastName           string
	Email              string
	PhoneNumber        string
	PasswordHash       string
	Specialization     string
	LicenseNumber      string
	YearsOfExperience  int
	ClinicAddress      Address
	VerificationStatus VerificationStatus
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
