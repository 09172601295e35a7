package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	NameMinLength = 2
	NameMaxLength = 50

	PasswordMinLength = 8
	// PasswordMaxBytes is bcrypt's input limit.
	PasswordMaxBytes = 72

	LicenseMaxLength = 50

	SpecializationMinLength = 3
	SpecializationMaxLength = 100

	ExperienceMinYears = 0
	ExperienceMaxYears = 50
)

// PredefinedSpecializations are matched case-insensitively and stored with this casing.
var PredefinedSpecializations = []string{
	"Cardiology", "Dermatology", "Endocrinology", "Gastroenterology",
	"Neurology", "Oncology", "Orthopedics", "Pediatrics", "Psychiatry",
	"Pulmonology", "Radiology", "Surgery", "Urology", "Emergency Medicine",
	"Family Medicine", "Internal Medicine", "Obstetrics and Gynecology",
}

var (
	e164Pattern           = regexp.MustCompile(`^\+[1-9][0-9]{0,14}$`)
	licensePattern        = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	zipPattern            = regexp.MustCompile(`^[A-Za-z0-9 \-]{3,20}$`)
	specializationPattern = regexp.MustCompile(`^[A-Za-z \-&,.]+$`)
)

// IsPersonName reports whether s is 2-50 characters of letters, spaces, hyphens and apostrophes.
func IsPersonName(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < NameMinLength || n > NameMaxLength {
		return false
	}
	hasLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case r == ' ', r == '-', r == '\'':
		default:
			return false
		}
	}
	return hasLetter
}

// IsE164 reports whether s is "+" followed by 1-15 digits, the first non-zero.
func IsE164(s string) bool {
	return e164Pattern.MatchString(s)
}

// IsLicenseNumber reports whether s is a non-empty alphanumeric string of at most 50 characters.
func IsLicenseNumber(s string) bool {
	return len(s) <= LicenseMaxLength && licensePattern.MatchString(s)
}

// IsZip accepts US ZIP codes and common international postal formats.
func IsZip(s string) bool {
	return zipPattern.MatchString(s)
}

// IsYearsOfExperience reports whether n lies in [0, 50].
func IsYearsOfExperience(n int) bool {
	return n >= ExperienceMinYears && n <= ExperienceMaxYears
}

// PasswordWeaknesses lists the strength requirements s does not meet.
func PasswordWeaknesses(s string) []string {
	var out []string
	if utf8.RuneCountInString(s) < PasswordMinLength {
		out = append(out, "at least 8 characters")
	}
	if len(s) > PasswordMaxBytes {
		out = append(out, "at most 72 bytes")
	}
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !upper {
		out = append(out, "one uppercase letter")
	}
	if !lower {
		out = append(out, "one lowercase letter")
	}
	if !digit {
		out = append(out, "one digit")
	}
	if !symbol {
		out = append(out, "one special character")
	}
	return out
}

// IsStrongPassword reports whether s meets every strength requirement.
func IsStrongPassword(s string) bool {
	return len(PasswordWeaknesses(s)) == 0
}

// CanonicalSpecialization returns the predefined spelling of s, if any.
func CanonicalSpecialization(s string) (string, bool) {
	for _, name := range PredefinedSpecializations {
		if strings.EqualFold(name, s) {
			return name, true
		}
	}
	return "", false
}

// IsSpecialization accepts a predefined specialization, or free text of
// 3-100 letters, spaces and the punctuation "-&,.".
func IsSpecialization(s string) bool {
	if _, ok := CanonicalSpecialization(s); ok {
		return true
	}
	n := utf8.RuneCountInString(s)
	if n < SpecializationMinLength || n > SpecializationMaxLength {
		return false
	}
	return specializationPattern.MatchString(s)
}
