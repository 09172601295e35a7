package templates

import (
	"time"

	"github.com/oksasatya/healthfirst-provider/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithSpecialization(s string) Option { return func(d *EmailData) { d.Specialization = s } }
func WithLicenseNumber(n string) Option  { return func(d *EmailData) { d.LicenseNumber = n } }
func WithVerificationStatus(s string) Option {
	return func(d *EmailData) { d.VerificationStatus = s }
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, name, email, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: recipient,
		Type:           typ,
	}
	if cfg != nil {
		d.CompanyName = cfg.CompanyName
		d.AppName = cfg.AppName
		d.SupportURL = cfg.SupportURL
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewRegistrationReceivedData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, RegistrationReceived, name, email, email, opts...)
	return ToMap(d)
}
