//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/oksasatya/healthfirst-provider/internal/domain/entity"
	"github.com/oksasatya/healthfirst-provider/internal/domain/repository"
)

type ProviderRepositorySuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	repo      *ProviderRepository
}

func TestProviderRepositorySuite(t *testing.T) {
	suite.Run(t, new(ProviderRepositorySuite))
}

func (s *ProviderRepositorySuite) SetupSuite() {
	ctx := context.Background()
	c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("healthfirst"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = c

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	logger := logrus.New()
	s.Require().NoError(RunMigrations(dsn, logger))

	pool, err := NewPool(ctx, dsn, 10, 1, time.Hour)
	s.Require().NoError(err)
	s.repo = NewProviderRepository(pool)
}

func (s *ProviderRepositorySuite) TearDownSuite() {
	if s.repo != nil {
		_ = s.repo.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *ProviderRepositorySuite) SetupTest() {
	_, err := s.repo.pool.Exec(context.Background(), `TRUNCATE providers`)
	s.Require().NoError(err)
}

func newProvider(email, phone, license string) *entity.Provider {
	return &entity.Provider{
		FirstName:          "Jane",
		LastName:           "Doe",
		Email:              email,
		PhoneNumber:        phone,
		PasswordHash:       "$2a$04$digest",
		Specialization:     "Cardiology",
		LicenseNumber:      license,
		YearsOfExperience:  5,
		ClinicAddress:      entity.Address{Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		VerificationStatus: entity.VerificationPending,
		IsActive:           true,
	}
}

func (s *ProviderRepositorySuite) TestCreateAndLookup() {
	ctx := context.Background()
	p := newProvider("jane@example.com", "+15551234567", "MD1")
	s.Require().NoError(s.repo.Create(ctx, p))
	s.NotEmpty(p.ID)
	s.False(p.CreatedAt.IsZero())
	s.Equal(p.CreatedAt, p.UpdatedAt)

	got, err := s.repo.GetByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("jane@example.com", got.Email)
	s.Equal(entity.VerificationPending, got.VerificationStatus)

	got, err = s.repo.FindBy(ctx, repository.FieldEmail, "JANE@example.com")
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)

	_, err = s.repo.FindBy(ctx, repository.FieldLicenseNumber, "MD2")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *ProviderRepositorySuite) TestUniqueConstraintsNameTheField() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, newProvider("a@example.com", "+15550000001", "LIC1")))

	cases := map[repository.Field]*entity.Provider{
		repository.FieldEmail:         newProvider("A@Example.com", "+15550000002", "LIC2"),
		repository.FieldPhoneNumber:   newProvider("b@example.com", "+15550000001", "LIC3"),
		repository.FieldLicenseNumber: newProvider("c@example.com", "+15550000003", "LIC1"),
	}
	for field, p := range cases {
		err := s.repo.Create(ctx, p)
		var dup *repository.DuplicateKeyError
		s.Require().ErrorAs(err, &dup, string(field))
		s.Equal([]repository.Field{field}, dup.Fields)
	}
}

func (s *ProviderRepositorySuite) TestConcurrentSameLicense() {
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := newProvider("user"+string(rune('a'+i))+"@example.com", "+1555000010"+string(rune('0'+i)), "RACE1")
			errs[i] = s.repo.Create(ctx, p)
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(s.T(), err, repository.ErrDuplicateKey):
			dup++
		}
	}
	require.Equal(s.T(), 1, ok)
	require.Equal(s.T(), 1, dup)
}
