package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/healthfirst-provider/config"
	"github.com/oksasatya/healthfirst-provider/internal/domain/entity"
	repo "github.com/oksasatya/healthfirst-provider/internal/domain/repository"
	"github.com/oksasatya/healthfirst-provider/internal/infrastructure/metrics"
	"github.com/oksasatya/healthfirst-provider/internal/infrastructure/search"
	"github.com/oksasatya/healthfirst-provider/pkg/helpers"
	"github.com/oksasatya/healthfirst-provider/pkg/mailer"
	mailtpl "github.com/oksasatya/healthfirst-provider/pkg/mailer/templates"
	"github.com/oksasatya/healthfirst-provider/pkg/validation"
)

// PasswordHasher turns a raw password into a digest.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// JobPublisher enqueues a JSON job, e.g. *helpers.RabbitPublisher.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// ProviderDirectory is the searchable provider index, e.g. *search.ProviderDirectory.
type ProviderDirectory interface {
	IndexProvider(ctx context.Context, p *entity.Provider) error
	SearchProviders(ctx context.Context, q string, size int) ([]search.ProviderDocument, error)
}

const providerCachePrefix = "provider:view:"

func providerCacheKey(id string) string {
	return providerCachePrefix + id
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ProviderService runs provider registration and lookups. Redis, Publisher,
// Directory and Metrics are optional; a nil value skips that side effect.
type ProviderService struct {
	Repo      repo.ProviderRepository
	Hasher    PasswordHasher
	Checker   *UniquenessChecker
	Validate  *validator.Validate
	Logger    logrus.FieldLogger
	Redis     redis.Cmdable
	CacheTTL  time.Duration
	Publisher JobPublisher
	MailCfg   *config.Config
	Directory ProviderDirectory
	Metrics   *metrics.Metrics
}

// ServiceOption configures optional collaborators of ProviderService.
type ServiceOption func(*ProviderService)

func WithCache(rdb redis.Cmdable, ttl time.Duration) ServiceOption {
	return func(s *ProviderService) {
		s.Redis = rdb
		s.CacheTTL = ttl
	}
}

// WithPublisher enables the registration email job; cfg supplies branding.
func WithPublisher(p JobPublisher, cfg *config.Config) ServiceOption {
	return func(s *ProviderService) {
		s.Publisher = p
		s.MailCfg = cfg
	}
}

func WithDirectory(d ProviderDirectory) ServiceOption {
	return func(s *ProviderService) { s.Directory = d }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *ProviderService) { s.Metrics = m }
}

func NewProviderService(r repo.ProviderRepository, hasher PasswordHasher, logger logrus.FieldLogger, opts ...ServiceOption) *ProviderService {
	s := &ProviderService{
		Repo:     r,
		Hasher:   hasher,
		Checker:  NewUniquenessChecker(r),
		Validate: validation.New(),
		Logger:   logger,
		CacheTTL: 10 * time.Minute,
	}
	if s.Logger == nil {
		s.Logger = logrus.StandardLogger()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates, checks uniqueness, hashes and persists a new provider,
// strictly in that order. Failures return *ValidationError, *ConflictError
// or an error wrapping ErrStorageUnavailable.
func (s *ProviderService) Register(ctx context.Context, in RegisterProviderInput) (*ProviderView, error) {
	start := time.Now()
	defer s.Metrics.ObserveRegister(start)

	in.Normalize()

	var ruleErrs []validation.FieldError
	if err := s.Validate.StructCtx(ctx, in); err != nil {
		ruleErrs = validation.ToFieldErrors(err)
	}
	if fields := mergeFieldErrors(in.DecodeErrors, ruleErrs); len(fields) > 0 {
		s.Metrics.IncOutcome(metrics.OutcomeRejectedInvalid)
		s.Logger.WithField("fields", fieldNames(fields)).Info("provider registration rejected: validation")
		return nil, &ValidationError{Fields: fields}
	}

	keys := Keys{Email: in.Email, PhoneNumber: in.PhoneNumber, LicenseNumber: in.LicenseNumber}
	taken, err := s.Checker.Conflicts(ctx, keys)
	if err != nil {
		return nil, s.storageFailure("uniqueness check failed", err)
	}
	if len(taken) > 0 {
		return nil, s.conflict(taken)
	}

	hashStart := time.Now()
	digest, err := s.Hasher.Hash(in.Password)
	s.Metrics.ObserveHash(hashStart)
	if err != nil {
		s.Logger.WithError(err).Error("password hashing failed")
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := in.toEntity(digest)
	if err := s.Repo.Create(ctx, p); err != nil {
		var dup *repo.DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, s.conflict(s.lostRaceFields(ctx, dup, keys))
		}
		return nil, s.storageFailure("persist provider failed", err)
	}

	view := NewProviderView(p)
	s.Metrics.IncOutcome(metrics.OutcomeRegistered)
	s.Logger.WithFields(logrus.Fields{
		"provider_id": p.ID,
		"backend":     s.Repo.Backend(),
	}).Info("provider registered")

	s.afterRegister(ctx, p, view)
	return view, nil
}

// lostRaceFields names the fields of a write-time duplicate. When the store
// could not name them the checker is consulted again.
func (s *ProviderService) lostRaceFields(ctx context.Context, dup *repo.DuplicateKeyError, keys Keys) []string {
	if len(dup.Fields) > 0 {
		named := make(map[repo.Field]bool, len(dup.Fields))
		for _, f := range dup.Fields {
			named[f] = true
		}
		out := make([]string, 0, len(dup.Fields))
		for _, f := range repo.UniqueFields {
			if named[f] {
				out = append(out, string(f))
			}
		}
		return out
	}
	taken, err := s.Checker.Conflicts(ctx, keys)
	if err != nil {
		s.Logger.WithError(err).Warn("re-check after duplicate key failed")
	}
	if len(taken) == 0 {
		// the conflicting row is not visible to us; report every unique key
		taken = make([]string, 0, len(repo.UniqueFields))
		for _, f := range repo.UniqueFields {
			taken = append(taken, string(f))
		}
	}
	return taken
}

func (s *ProviderService) conflict(fields []string) error {
	s.Metrics.IncOutcome(metrics.OutcomeRejectedConflict)
	s.Logger.WithField("fields", fields).Warn("provider registration rejected: conflict")
	return &ConflictError{Fields: fields}
}

func (s *ProviderService) storageFailure(msg string, err error) error {
	s.Metrics.IncOutcome(metrics.OutcomeRejectedStorage)
	s.Logger.WithError(err).WithField("backend", s.Repo.Backend()).Error(msg)
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

// afterRegister runs best-effort side effects. None of them fails the request.
func (s *ProviderService) afterRegister(ctx context.Context, p *entity.Provider, view *ProviderView) {
	log := s.Logger.WithField("provider_id", p.ID)

	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, providerCacheKey(p.ID), view, s.CacheTTL); err != nil {
			s.Metrics.IncOutcome(metrics.OutcomeSideEffectFailure)
			log.WithError(err).Warn("cache provider view failed")
		}
	}

	if s.Publisher != nil {
		job := mailer.EmailJob{
			To:       p.Email,
			Template: mailtpl.RegistrationReceived,
			Data: mailtpl.NewRegistrationReceivedData(s.MailCfg, p.FirstName+" "+p.LastName, p.Email,
				mailtpl.WithSpecialization(p.Specialization),
				mailtpl.WithLicenseNumber(p.LicenseNumber),
				mailtpl.WithVerificationStatus(string(p.VerificationStatus)),
				mailtpl.WithTime(p.CreatedAt),
			),
		}
		c, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := s.Publisher.PublishJSON(c, job)
		cancel()
		if err != nil {
			s.Metrics.IncOutcome(metrics.OutcomeSideEffectFailure)
			log.WithError(err).Warn("publish registration email failed")
		}
	}

	if s.Directory != nil {
		if err := s.Directory.IndexProvider(ctx, p); err != nil {
			s.Metrics.IncOutcome(metrics.OutcomeSideEffectFailure)
			log.WithError(err).Warn("es index failed")
		}
	}
}

// AvailabilityQuery holds the keys a client wants to check before registering.
type AvailabilityQuery struct {
	Email         string `form:"email"`
	PhoneNumber   string `form:"phone_number"`
	LicenseNumber string `form:"license_number"`
}

// queryPhone trims a phone number taken from a query string. An unencoded
// "+" is decoded as a space, so " 15551234567" becomes "+15551234567".
func queryPhone(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || !strings.HasPrefix(raw, " ") {
		return v
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return v
		}
	}
	return "+" + v
}

// AvailabilityResult reports format errors and taken keys. IsValid is true
// when both lists are empty.
type AvailabilityResult struct {
	IsValid bool                    `json:"is_valid"`
	Taken   []string                `json:"taken"`
	Errors  []validation.FieldError `json:"errors"`
}

// CheckAvailability validates the format of each given key and probes the
// well-formed ones for uniqueness.
func (s *ProviderService) CheckAvailability(ctx context.Context, q AvailabilityQuery) (*AvailabilityResult, error) {
	q.Email = strings.ToLower(strings.TrimSpace(q.Email))
	q.PhoneNumber = queryPhone(q.PhoneNumber)
	q.LicenseNumber = strings.ToUpper(strings.TrimSpace(q.LicenseNumber))
	if q.Email == "" && q.PhoneNumber == "" && q.LicenseNumber == "" {
		return nil, ErrNoAvailabilityKeys
	}

	res := &AvailabilityResult{Taken: []string{}, Errors: []validation.FieldError{}}
	keys := Keys{}
	if q.Email != "" {
		if err := s.Validate.Var(q.Email, "max=254,email"); err != nil {
			res.Errors = append(res.Errors, validation.FieldError{Field: string(repo.FieldEmail), Code: validation.CodeInvalidEmail, Message: "must be a valid email"})
		} else {
			keys.Email = q.Email
		}
	}
	if q.PhoneNumber != "" {
		if !validation.IsE164(q.PhoneNumber) {
			res.Errors = append(res.Errors, validation.FieldError{Field: string(repo.FieldPhoneNumber), Code: validation.CodeInvalidPhone, Message: "must be in international E.164 format, e.g. +15551234567"})
		} else {
			keys.PhoneNumber = q.PhoneNumber
		}
	}
	if q.LicenseNumber != "" {
		if !validation.IsLicenseNumber(q.LicenseNumber) {
			res.Errors = append(res.Errors, validation.FieldError{Field: string(repo.FieldLicenseNumber), Code: validation.CodeInvalidLicense, Message: "must contain letters and digits only"})
		} else {
			keys.LicenseNumber = q.LicenseNumber
		}
	}

	if keys != (Keys{}) {
		taken, err := s.Checker.Conflicts(ctx, keys)
		if err != nil {
			return nil, s.storageFailure("availability check failed", err)
		}
		if taken != nil {
			res.Taken = taken
		}
	}
	res.IsValid = len(res.Taken) == 0 && len(res.Errors) == 0
	return res, nil
}

// GetProvider returns the public view by id, reading through the Redis cache
// when configured. Ids that are not UUIDs are reported as not found.
func (s *ProviderService) GetProvider(ctx context.Context, id string) (*ProviderView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrProviderNotFound
	}

	if s.Redis != nil {
		var cached ProviderView
		ok, err := helpers.RedisGetJSON(ctx, s.Redis, providerCacheKey(id), &cached)
		switch {
		case err != nil:
			s.Metrics.IncCache("error")
			s.Logger.WithError(err).WithField("provider_id", id).Warn("cache read failed")
		case ok:
			s.Metrics.IncCache("hit")
			return &cached, nil
		default:
			s.Metrics.IncCache("miss")
		}
	}

	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, s.storageFailure("get provider failed", err)
	}
	view := NewProviderView(p)

	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, providerCacheKey(id), view, s.CacheTTL); err != nil {
			s.Logger.WithError(err).WithField("provider_id", id).Warn("cache write failed")
		}
	}
	return view, nil
}

// SearchProviders queries the directory index. Without a directory, or with
// a blank query, it returns an empty list.
func (s *ProviderService) SearchProviders(ctx context.Context, q string, size int) ([]search.ProviderDocument, error) {
	q = strings.TrimSpace(q)
	if s.Directory == nil || q == "" {
		return []search.ProviderDocument{}, nil
	}
	docs, err := s.Directory.SearchProviders(ctx, q, search.ClampSize(size))
	if err != nil {
		s.Logger.WithError(err).Error("provider search failed")
		return nil, fmt.Errorf("search providers: %w", err)
	}
	return docs, nil
}

// Health statuses.
const (
	StatusHealthy      = "healthy"
	StatusDegraded     = "degraded"
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusDisabled     = "disabled"
)

// HealthReport describes backend connectivity. Status is degraded when the
// database is unreachable; the cache never degrades it.
type HealthReport struct {
	Status   string `json:"status"`
	Backend  string `json:"backend"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

func (s *ProviderService) Health(ctx context.Context) HealthReport {
	r := HealthReport{Status: StatusHealthy, Backend: s.Repo.Backend(), Database: StatusConnected, Cache: StatusDisabled}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.Repo.Ping(c); err != nil {
		s.Logger.WithError(err).WithField("backend", r.Backend).Warn("database ping failed")
		r.Status = StatusDegraded
		r.Database = StatusDisconnected
	}

	if s.Redis != nil {
		r.Cache = StatusConnected
		if err := helpers.PingRedis(ctx, s.Redis); err != nil {
			r.Cache = StatusDisconnected
		}
	}
	return r
}

// mergeFieldErrors puts decode errors first and drops rule failures on the
// same fields, since a mistyped value is left zero and would also fail required.
func mergeFieldErrors(decode, rules []validation.FieldError) []validation.FieldError {
	if len(decode) == 0 {
		return rules
	}
	seen := make(map[string]bool, len(decode))
	out := make([]validation.FieldError, 0, len(decode)+len(rules))
	for _, fe := range decode {
		seen[fe.Field] = true
		out = append(out, fe)
	}
	for _, fe := range rules {
		if !seen[fe.Field] {
			out = append(out, fe)
		}
	}
	return out
}

func fieldNames(fields []validation.FieldError) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Field)
	}
	return out
}
