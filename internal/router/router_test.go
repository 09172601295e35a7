package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/healthfirst-provider/config"
	"github.com/oksasatya/healthfirst-provider/internal/container"
	"github.com/oksasatya/healthfirst-provider/internal/infrastructure/metrics"
	sqliteinfra "github.com/oksasatya/healthfirst-provider/internal/infrastructure/sqlite"
	"github.com/oksasatya/healthfirst-provider/pkg/helpers"
)

type envelope struct {
	Status    int             `json:"status"`
	RequestID string          `json:"request_id"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     json.RawMessage `json:"error"`
}

type fieldError struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

type ProviderAPISuite struct {
	suite.Suite
	engine *gin.Engine
	repo   *sqliteinfra.ProviderRepository
}

func TestProviderAPISuite(t *testing.T) {
	suite.Run(t, new(ProviderAPISuite))
}

func (s *ProviderAPISuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	repo, err := sqliteinfra.Open(context.Background(), filepath.Join(s.T().TempDir(), "api.db"))
	s.Require().NoError(err)
	s.repo = repo

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{AppName: "Health First Provider Registration", Version: "test", CORSAllowedOrigins: "*", MetricsEnabled: true}
	reg := prometheus.NewRegistry()

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetProviderRepo(repo)
	container.SetHasher(helpers.NewPasswordHasher(bcrypt.MinCost))
	container.SetRedis(nil)
	container.SetRabbitPub(nil)
	container.SetES(nil)
	container.SetMetrics(metrics.New(reg), reg)

	s.engine = NewEngine(cfg, logger)
	r := NewRegistry(s.engine)
	InitModules(r)
	r.RegisterAll()
}

func (s *ProviderAPISuite) TearDownTest() {
	_ = s.repo.Close()
}

func (s *ProviderAPISuite) do(method, path string, body []byte) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func payload(overrides map[string]any) []byte {
	p := map[string]any{
		"first_name":          "Jane",
		"last_name":           "Doe",
		"email":               "jane.doe@example.com",
		"phone_number":        "+15551234567",
		"password":            "Abc12345!",
		"confirm_password":    "Abc12345!",
		"specialization":      "Cardiology",
		"license_number":      "MD12345",
		"years_of_experience": 10,
		"clinic_address": map[string]any{
			"street": "1 Main St", "city": "Springfield", "state": "IL", "zip": "62701",
		},
	}
	for k, v := range overrides {
		if v == nil {
			delete(p, k)
			continue
		}
		p[k] = v
	}
	b, _ := json.Marshal(p)
	return b
}

func (s *ProviderAPISuite) register(overrides map[string]any) (*httptest.ResponseRecorder, envelope) {
	return s.do(http.MethodPost, "/api/v1/provider/register", payload(overrides))
}

func (s *ProviderAPISuite) fieldErrors(env envelope) map[string]string {
	var errs []fieldError
	s.Require().NoError(json.Unmarshal(env.Error, &errs))
	out := map[string]string{}
	for _, e := range errs {
		out[e.Field] = e.Code
	}
	return out
}

func (s *ProviderAPISuite) TestRegister_CreatedThenConflictOnEveryKey() {
	w, env := s.register(nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.True(env.Success)
	s.NotEmpty(env.RequestID)

	var data map[string]any
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.NotEmpty(data["id"])
	s.Equal("pending", data["verification_status"])
	s.Equal(true, data["is_active"])
	s.NotContains(data, "password_hash")
	s.NotContains(data, "password")
	s.NotContains(w.Body.String(), "Abc12345!")

	w, env = s.register(map[string]any{"email": "JANE.DOE@example.com"})
	s.Require().Equal(http.StatusConflict, w.Code)
	var conflict struct {
		Fields []string `json:"fields"`
	}
	s.Require().NoError(json.Unmarshal(env.Error, &conflict))
	s.Equal([]string{"email", "phone_number", "license_number"}, conflict.Fields)
}

func (s *ProviderAPISuite) TestRegister_WeakPassword() {
	w, env := s.register(map[string]any{"password": "short1!", "confirm_password": "short1!"})

	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal(map[string]string{"password": "weak_password"}, s.fieldErrors(env))
	s.NotContains(w.Body.String(), "short1!")
}

func (s *ProviderAPISuite) TestRegister_CollectsAllFieldErrors() {
	w, env := s.register(map[string]any{
		"first_name":          "J",
		"email":               "nope",
		"phone_number":        "5551234",
		"years_of_experience": 51,
		"clinic_address":      map[string]any{"street": "1 Main St", "city": "Springfield", "state": "IL", "zip": "!"},
		"license_number":      nil,
	})

	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal(map[string]string{
		"first_name":          "too_short",
		"email":               "invalid_email",
		"phone_number":        "invalid_phone",
		"license_number":      "required",
		"years_of_experience": "out_of_range",
		"clinic_address.zip":  "invalid_zip",
	}, s.fieldErrors(env))
}

func (s *ProviderAPISuite) TestRegister_BadBodies() {
	w, _ := s.do(http.MethodPost, "/api/v1/provider/register", []byte(`{"first_name":`))
	s.Equal(http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodPost, "/api/v1/provider/register", []byte(`[1,2]`))
	s.Equal(http.StatusBadRequest, w.Code)

	w, env := s.register(map[string]any{"years_of_experience": "ten"})
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal(map[string]string{"years_of_experience": "invalid_type"}, s.fieldErrors(env))

	w, env = s.register(map[string]any{"years_of_experience": "ten", "email": "nope", "first_name": "J"})
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal(map[string]string{
		"years_of_experience": "invalid_type",
		"email":               "invalid_email",
		"first_name":          "too_short",
	}, s.fieldErrors(env))
}

func (s *ProviderAPISuite) TestRegister_NormalizesBeforeStoring() {
	w, env := s.register(map[string]any{"email": "Dr@Example.COM", "license_number": "md1", "specialization": "family medicine"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data map[string]any
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal("dr@example.com", data["email"])
	s.Equal("MD1", data["license_number"])
	s.Equal("Family Medicine", data["specialization"])
}

func (s *ProviderAPISuite) TestGetByID_RoundTrip() {
	_, created := s.register(nil)
	var c map[string]any
	s.Require().NoError(json.Unmarshal(created.Data, &c))

	w, env := s.do(http.MethodGet, "/api/v1/provider/"+c["id"].(string), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var got map[string]any
	s.Require().NoError(json.Unmarshal(env.Data, &got))
	s.Equal(c, got)
	s.NotContains(w.Body.String(), "password_hash")

	w, _ = s.do(http.MethodGet, "/api/v1/provider/7d1f0c52-3c1e-4c83-9f3e-1b7a4f0d2a11", nil)
	s.Equal(http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/provider/not-a-uuid", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ProviderAPISuite) TestValidate() {
	w, _ := s.do(http.MethodGet, "/api/v1/provider/validate", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w, env := s.do(http.MethodGet, "/api/v1/provider/validate?email=jane.doe@example.com", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"is_valid":true,"taken":[],"errors":[]}`, string(env.Data))

	s.register(nil)
	w, env = s.do(http.MethodGet, "/api/v1/provider/validate?email=JANE.DOE@example.com&license_number=md12345", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"is_valid":false,"taken":["email","license_number"],"errors":[]}`, string(env.Data))

	for _, q := range []string{"phone_number=%2B15551234567", "phone_number=+15551234567"} {
		w, env = s.do(http.MethodGet, "/api/v1/provider/validate?"+q, nil)
		s.Require().Equal(http.StatusOK, w.Code, q)
		s.JSONEq(`{"is_valid":false,"taken":["phone_number"],"errors":[]}`, string(env.Data), q)
	}
}

func (s *ProviderAPISuite) TestRegister_ConcurrentSameLicense() {
	bodies := [][]byte{
		payload(map[string]any{"email": "a@example.com", "phone_number": "+15550000001"}),
		payload(map[string]any{"email": "b@example.com", "phone_number": "+15550000002"}),
	}
	codes := make([]int, len(bodies))
	envs := make([]envelope, len(bodies))

	var wg sync.WaitGroup
	for i, b := range bodies {
		wg.Add(1)
		go func(i int, b []byte) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/provider/register", bytes.NewReader(b))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			s.engine.ServeHTTP(w, req)
			codes[i] = w.Code
			_ = json.Unmarshal(w.Body.Bytes(), &envs[i])
		}(i, b)
	}
	wg.Wait()

	s.ElementsMatch([]int{http.StatusCreated, http.StatusConflict}, codes)
	for i, code := range codes {
		if code != http.StatusConflict {
			continue
		}
		var conflict struct {
			Fields []string `json:"fields"`
		}
		s.Require().NoError(json.Unmarshal(envs[i].Error, &conflict))
		s.Equal([]string{"license_number"}, conflict.Fields)
	}
}

func (s *ProviderAPISuite) TestRootHealthAndMetrics() {
	w, env := s.do(http.MethodGet, "/", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"service":"Health First Provider Registration","version":"test","status":"running","backend":"sqlite","database":"connected"}`, string(env.Data))

	w, env = s.do(http.MethodGet, "/health", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"healthy","backend":"sqlite","database":"connected","cache":"disabled"}`, string(env.Data))

	s.Require().NoError(s.repo.Close())
	w, _ = s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)

	w, _ = s.do(http.MethodGet, "/api/metrics", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "healthfirst_register_duration_seconds")
}

func (s *ProviderAPISuite) TestSearch_WithoutDirectory() {
	w, env := s.do(http.MethodGet, "/api/v1/provider/search?q=cardiology", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"providers":[],"count":0}`, string(env.Data))
}
