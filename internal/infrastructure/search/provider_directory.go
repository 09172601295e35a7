package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/healthfirst-provider/internal/domain/entity"
)

const (
	DefaultSearchSize = 10
	MaxSearchSize     = 50
)

// ProviderDocument is the indexed shape of a provider. It never carries the
// password digest or the contact phone number.
type ProviderDocument struct {
	ID                 string         `json:"id"`
	FirstName          string         `json:"first_name"`
	LastName           string         `json:"last_name"`
	Email              string         `json:"email"`
	Specialization     string         `json:"specialization"`
	LicenseNumber      string         `json:"license_number"`
	YearsOfExperience  int            `json:"years_of_experience"`
	ClinicAddress      entity.Address `json:"clinic_address"`
	VerificationStatus string         `json:"verification_status"`
	IsActive           bool           `json:"is_active"`
	CreatedAt          string         `json:"created_at"`
}

// NewProviderDocument builds the indexed document for p.
func NewProviderDocument(p *entity.Provider) ProviderDocument {
	return ProviderDocument{
		ID:                 p.ID,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Email:              p.Email,
		Specialization:     p.Specialization,
		LicenseNumber:      p.LicenseNumber,
		YearsOfExperience:  p.YearsOfExperience,
		ClinicAddress:      p.ClinicAddress,
		VerificationStatus: string(p.VerificationStatus),
		IsActive:           p.IsActive,
		CreatedAt:          p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ProviderDirectory indexes and searches providers in Elasticsearch.
type ProviderDirectory struct {
	ES    *elasticsearch.Client
	Index string
}

func NewProviderDirectory(es *elasticsearch.Client, index string) *ProviderDirectory {
	return &ProviderDirectory{ES: es, Index: index}
}

// IndexProvider upserts the provider document keyed by id.
func (d *ProviderDirectory) IndexProvider(ctx context.Context, p *entity.Provider) error {
	b, err := json.Marshal(NewProviderDocument(p))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: d.Index, DocumentID: p.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, d.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index response: %s", res.Status())
	}
	return nil
}

// SearchQuery builds a multi_match query over names, specialization and city.
func SearchQuery(q string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"last_name^3", "first_name^2", "specialization^2", "clinic_address.city", "email"},
				"fuzziness": "AUTO",
			},
		},
		"size": ClampSize(size),
	}
}

// ClampSize applies the default and upper bound to a requested page size.
func ClampSize(size int) int {
	if size <= 0 {
		return DefaultSearchSize
	}
	if size > MaxSearchSize {
		return MaxSearchSize
	}
	return size
}

// SearchProviders performs a simple multi_match search and returns the hit sources.
func (d *ProviderDirectory) SearchProviders(ctx context.Context, q string, size int) ([]ProviderDocument, error) {
	b, err := json.Marshal(SearchQuery(q, size))
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := d.ES.Search(
		d.ES.Search.WithContext(c),
		d.ES.Search.WithIndex(d.Index),
		d.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search response: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string           `json:"_id"`
				Source ProviderDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]ProviderDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		if h.Source.ID == "" {
			h.Source.ID = h.ID
		}
		out = append(out, h.Source)
	}
	return out, nil
}
