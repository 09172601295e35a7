package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/oksasatya/healthfirst-provider/internal/domain/entity"
	"github.com/oksasatya/healthfirst-provider/internal/domain/repository"
)

const collectionName = "providers"

var dupIndexPattern = regexp.MustCompile(`index: (\S+)`)

// providerDocument is the stored shape; the UUID string doubles as _id.
// Email is stored lower-cased so the unique index is case-insensitive.
type providerDocument struct {
	ID                 string         `bson:"_id"`
	FirstName          string         `bson:"first_name"`
	LastName           string         `bson:"last_name"`
	Email              string         `bson:"email"`
	PhoneNumber        string         `bson:"phone_number"`
	PasswordHash       string         `bson:"password_hash"`
	Specialization     string         `bson:"specialization"`
	LicenseNumber      string         `bson:"license_number"`
	YearsOfExperience  int            `bson:"years_of_experience"`
	ClinicAddress      entity.Address `bson:"clinic_address"`
	VerificationStatus string         `bson:"verification_status"`
	IsActive           bool           `bson:"is_active"`
	CreatedAt          time.Time      `bson:"created_at"`
	UpdatedAt          time.Time      `bson:"updated_at"`
}

func toDocument(p *entity.Provider) providerDocument {
	return providerDocument{
		ID:                 p.ID,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Email:              strings.ToLower(p.Email),
		PhoneNumber:        p.PhoneNumber,
		PasswordHash:       p.PasswordHash,
		Specialization:     p.Specialization,
		LicenseNumber:      p.LicenseNumber,
		YearsOfExperience:  p.YearsOfExperience,
		ClinicAddress:      p.ClinicAddress,
		VerificationStatus: string(p.VerificationStatus),
		IsActive:           p.IsActive,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func (d providerDocument) toEntity() *entity.Provider {
	return &entity.Provider{
		ID:                 d.ID,
		FirstName:          d.FirstName,
		LastName:           d.LastName,
		Email:              d.Email,
		PhoneNumber:        d.PhoneNumber,
		PasswordHash:       d.PasswordHash,
		Specialization:     d.Specialization,
		LicenseNumber:      d.LicenseNumber,
		YearsOfExperience:  d.YearsOfExperience,
		ClinicAddress:      d.ClinicAddress,
		VerificationStatus: entity.VerificationStatus(d.VerificationStatus),
		IsActive:           d.IsActive,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}
}

type ProviderRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewProviderRepository binds the providers collection of dbName and ensures
// its unique indexes.
func NewProviderRepository(ctx context.Context, client *mongo.Client, dbName string) (*ProviderRepository, error) {
	r := &ProviderRepository{client: client, coll: client.Database(dbName).Collection(collectionName)}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure provider indexes: %w", err)
	}
	return r, nil
}

func (r *ProviderRepository) ensureIndexes(ctx context.Context) error {
	models := make([]mongo.IndexModel, 0, len(repository.UniqueFields))
	for _, f := range repository.UniqueFields {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: string(f), Value: 1}},
			Options: options.Index().SetUnique(true).SetName(indexName(f)),
		})
	}
	_, err := r.coll.Indexes().CreateMany(ctx, models)
	return err
}

func indexName(f repository.Field) string {
	return collectionName + "_" + string(f) + "_key"
}

func (r *ProviderRepository) Create(ctx context.Context, p *entity.Provider) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt

	if _, err := r.coll.InsertOne(ctx, toDocument(p)); err != nil {
		return fmt.Errorf("insert provider: %w", mapError(err))
	}
	return nil
}

func (r *ProviderRepository) FindBy(ctx context.Context, field repository.Field, value string) (*entity.Provider, error) {
	switch field {
	case repository.FieldEmail:
		value = strings.ToLower(value)
	case repository.FieldPhoneNumber, repository.FieldLicenseNumber:
	default:
		return nil, fmt.Errorf("unsupported lookup field %q", field)
	}
	return r.findOne(ctx, bson.M{string(field): value})
}

func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*entity.Provider, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ProviderRepository) findOne(ctx context.Context, filter bson.M) (*entity.Provider, error) {
	var doc providerDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapError(err)
	}
	return doc.toEntity(), nil
}

func (r *ProviderRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}
	return nil
}

func (r *ProviderRepository) Backend() string { return "mongodb" }

func (r *ProviderRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// mapError translates driver errors into repository errors.
func mapError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return &repository.DuplicateKeyError{Fields: duplicateFields(err)}
	}
	return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
}

// duplicateFields reads the violated index names from the server messages.
func duplicateFields(err error) []repository.Field {
	var msgs []string
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			msgs = append(msgs, e.Message)
		}
	}
	if len(msgs) == 0 {
		msgs = append(msgs, err.Error())
	}

	var out []repository.Field
	for _, m := range msgs {
		match := dupIndexPattern.FindStringSubmatch(m)
		if match == nil {
			continue
		}
		if f, ok := repository.FieldFromConstraint(match[1]); ok {
			out = append(out, f)
		}
	}
	return out
}

var _ repository.ProviderRepository = (*ProviderRepository)(nil)
