package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Reason codes attached to every FieldError.
const (
	CodeRequired              = "required"
	CodeTooShort              = "too_short"
	CodeTooLong               = "too_long"
	CodeOutOfRange            = "out_of_range"
	CodeInvalidName           = "invalid_name"
	CodeInvalidEmail          = "invalid_email"
	CodeInvalidPhone          = "invalid_phone"
	CodeWeakPassword          = "weak_password"
	CodePasswordMismatch      = "password_mismatch"
	CodeInvalidLicense        = "invalid_license"
	CodeInvalidSpecialization = "invalid_specialization"
	CodeInvalidZip            = "invalid_zip"
	CodeInvalidType           = "invalid_type"
	CodeInvalid               = "invalid"
)

// FieldError is one failed rule on one field. Field uses the JSON name,
// dotted for nested objects (clinic_address.zip).
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// New returns a validator that reports JSON field names and knows the provider rules.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	configure(v)
	return v
}

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the provider rules as tags.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	_ = v.RegisterValidation("personname", stringRule(IsPersonName))
	_ = v.RegisterValidation("e164phone", stringRule(IsE164))
	_ = v.RegisterValidation("strongpwd", stringRule(IsStrongPassword))
	_ = v.RegisterValidation("license", stringRule(IsLicenseNumber))
	_ = v.RegisterValidation("specialization", stringRule(IsSpecialization))
	_ = v.RegisterValidation("zip", stringRule(IsZip))
}

func stringRule(fn func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	}
}

// ToFieldErrors converts validation and JSON type errors into FieldErrors,
// one per failing field, in struct order.
func ToFieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}

	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		field := ute.Field
		if field == "" {
			field = "payload"
		}
		return []FieldError{{Field: field, Code: CodeInvalidType, Message: "must be of type " + ute.Type.String()}}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			code, msg := formatFieldError(fe)
			out = append(out, FieldError{Field: fieldPath(fe), Code: code, Message: msg})
		}
		return out
	}

	return []FieldError{{Field: "payload", Code: CodeInvalid, Message: "invalid payload"}}
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func formatFieldError(fe validator.FieldError) (string, string) {
	tag := fe.Tag()
	param := fe.Param()
	number := isNumberKind(fe.Kind())

	switch tag {
	case "required":
		return CodeRequired, "is required"
	case "min", "gte":
		if number {
			return CodeOutOfRange, "must be at least " + param
		}
		return CodeTooShort, "must be at least " + param + " characters long"
	case "max", "lte":
		if number {
			return CodeOutOfRange, "must be at most " + param
		}
		return CodeTooLong, "must be at most " + param + " characters long"
	case "email":
		return CodeInvalidEmail, "must be a valid email"
	case "e164phone":
		return CodeInvalidPhone, "must be in international E.164 format, e.g. +15551234567"
	case "strongpwd":
		msg := "must be at least 8 characters with uppercase, lowercase, number and special character"
		if s, ok := fe.Value().(string); ok {
			if missing := PasswordWeaknesses(s); len(missing) > 0 {
				msg = "must contain " + strings.Join(missing, ", ")
			}
		}
		return CodeWeakPassword, msg
	case "eqfield":
		return CodePasswordMismatch, "must match " + strings.ToLower(param)
	case "license":
		return CodeInvalidLicense, "must contain letters and digits only"
	case "personname":
		return CodeInvalidName, "may only contain letters, spaces, hyphens and apostrophes"
	case "specialization":
		return CodeInvalidSpecialization, "must be a known specialization or 3-100 letters"
	case "zip":
		return CodeInvalidZip, "must be a valid postal code"
	case "oneof":
		return CodeInvalid, "must be one of: " + strings.Join(strings.Fields(param), ", ")
	default:
		if param != "" {
			return CodeInvalid, fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return CodeInvalid, fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
