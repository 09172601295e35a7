package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	repo "github.com/oksasatya/healthfirst-provider/internal/domain/repository"
)

// Keys are the uniqueness keys probed by UniquenessChecker. Empty keys are skipped.
type Keys struct {
	Email         string
	PhoneNumber   string
	LicenseNumber string
}

func (k Keys) value(f repo.Field) string {
	switch f {
	case repo.FieldEmail:
		return strings.ToLower(k.Email)
	case repo.FieldPhoneNumber:
		return k.PhoneNumber
	case repo.FieldLicenseNumber:
		return strings.ToUpper(k.LicenseNumber)
	}
	return ""
}

// UniquenessChecker reports which keys are already held by a stored provider.
type UniquenessChecker struct {
	Repo repo.ProviderRepository
}

func NewUniquenessChecker(r repo.ProviderRepository) *UniquenessChecker {
	return &UniquenessChecker{Repo: r}
}

// Conflicts returns the JSON names of the taken keys in the order
// email, phone_number, license_number. Lookup failures other than a miss abort.
func (c *UniquenessChecker) Conflicts(ctx context.Context, k Keys) ([]string, error) {
	var taken []string
	for _, f := range repo.UniqueFields {
		v := k.value(f)
		if v == "" {
			continue
		}
		_, err := c.Repo.FindBy(ctx, f, v)
		switch {
		case err == nil:
			taken = append(taken, string(f))
		case errors.Is(err, repo.ErrNotFound):
		default:
			return nil, fmt.Errorf("check %s: %w", f, err)
		}
	}
	return taken, nil
}
