package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/healthfirst-provider/config"
	"github.com/oksasatya/healthfirst-provider/internal/application"
	"github.com/oksasatya/healthfirst-provider/internal/infrastructure/persistence"
	"github.com/oksasatya/healthfirst-provider/pkg/helpers"
)

// seed registers a demo provider through the registration service so the
// record passes the same validation, hashing and uniqueness rules as the API.
func main() {
	_ = godotenv.Load()

	email := flag.String("email", "demo.provider@example.com", "provider email")
	phone := flag.String("phone", "+15550001111", "provider phone number (E.164)")
	license := flag.String("license", "DEMO0001", "provider license number")
	password := flag.String("password", "Demo#Pass123", "provider password")
	flag.Parse()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+" seed", cfg.Env, cfg.Debug)
	ctx := context.Background()

	repo, err := persistence.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open persistence: %v", err)
	}
	defer func() { _ = repo.Close() }()

	svc := application.NewProviderService(repo, helpers.NewPasswordHasher(cfg.BcryptRounds), logger)

	years := 8
	view, err := svc.Register(ctx, application.RegisterProviderInput{
		FirstName:         "Demo",
		LastName:          "Provider",
		Email:             *email,
		PhoneNumber:       *phone,
		Password:          *password,
		ConfirmPassword:   *password,
		Specialization:    "Family Medicine",
		LicenseNumber:     *license,
		YearsOfExperience: &years,
		ClinicAddress: &application.AddressInput{
			Street: "100 Health Way",
			City:   "Springfield",
			State:  "IL",
			Zip:    "62701",
		},
	})
	var cerr *application.ConflictError
	var verr *application.ValidationError
	switch {
	case errors.As(err, &cerr):
		logger.WithField("fields", cerr.Fields).Info("demo provider already present")
	case errors.As(err, &verr):
		log.Fatalf("seed data invalid: %v", verr)
	case err != nil:
		log.Fatalf("seed failed: %v", err)
	default:
		logger.WithField("provider_id", view.ID).Info("demo provider seeded")
	}
}
