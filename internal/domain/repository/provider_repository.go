package repository

import (
	"context"

	"github.com/oksasatya/healthfirst-provider/internal/domain/entity"
)

//go:generate mockgen -source=provider_repository.go -destination=mocks/provider_repository_mock.go -package=mocks

// Field names a uniqueness key. Values match the JSON field names of the API.
type Field string

const (
	FieldEmail         Field = "email"
	FieldPhoneNumber   Field = "phone_number"
	FieldLicenseNumber Field = "license_number"
)

// UniqueFields lists the uniqueness keys in reporting order.
var UniqueFields = []Field{FieldEmail, FieldPhoneNumber, FieldLicenseNumber}

// ProviderRepository is the persistence capability shared by every backend.
// Create assigns ID and timestamps when they are empty.
type ProviderRepository interface {
	Create(ctx context.Context, p *entity.Provider) error
	FindBy(ctx context.Context, field Field, value string) (*entity.Provider, error)
	GetByID(ctx context.Context, id string) (*entity.Provider, error)
	Ping(ctx context.Context) error
	Backend() string
	Close() error
}
