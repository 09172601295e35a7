package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/healthfirst-provider/internal/domain/entity"
)

func newTestDirectory(t *testing.T, h http.HandlerFunc) *ProviderDirectory {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the v8 client refuses servers that do not identify as Elasticsearch
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewProviderDirectory(es, "providers")
}

func sampleProvider() *entity.Provider {
	return &entity.Provider{
		ID:                 "7d1f0c52-3c1e-4c83-9f3e-1b7a4f0d2a11",
		FirstName:          "Jane",
		LastName:           "Doe",
		Email:              "jane@example.com",
		PhoneNumber:        "+15551234567",
		PasswordHash:       "$2a$12$secretdigest",
		Specialization:     "Cardiology",
		LicenseNumber:      "MD1",
		YearsOfExperience:  10,
		ClinicAddress:      entity.Address{Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		VerificationStatus: entity.VerificationPending,
		IsActive:           true,
		CreatedAt:          time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestIndexProvider_SendsPublicDocument(t *testing.T) {
	var gotPath, gotBody string
	d := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	require.NoError(t, d.IndexProvider(context.Background(), sampleProvider()))

	assert.Equal(t, "/providers/_doc/7d1f0c52-3c1e-4c83-9f3e-1b7a4f0d2a11", gotPath)
	assert.Contains(t, gotBody, `"license_number":"MD1"`)
	assert.NotContains(t, gotBody, "secretdigest")
	assert.NotContains(t, gotBody, "+15551234567")
}

func TestIndexProvider_ErrorStatus(t *testing.T) {
	d := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := d.IndexProvider(context.Background(), sampleProvider())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSearchProviders_DecodesHits(t *testing.T) {
	var query map[string]any
	d := newTestDirectory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/providers/_search"))
		_ = json.NewDecoder(r.Body).Decode(&query)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"a","_source":{"id":"a","first_name":"Jane","last_name":"Doe","specialization":"Cardiology"}},
			{"_id":"b","_source":{"first_name":"John","last_name":"Roe"}}
		]}}`))
	})

	docs, err := d.SearchProviders(context.Background(), "cardio", 500)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Jane", docs[0].FirstName)
	assert.Equal(t, "b", docs[1].ID)
	assert.Equal(t, float64(MaxSearchSize), query["size"])
}

func TestClampSize(t *testing.T) {
	assert.Equal(t, DefaultSearchSize, ClampSize(0))
	assert.Equal(t, DefaultSearchSize, ClampSize(-3))
	assert.Equal(t, 25, ClampSize(25))
	assert.Equal(t, MaxSearchSize, ClampSize(51))
}
