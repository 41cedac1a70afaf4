// Package elasticsearch mirrors SAR and screening records into a search
// cluster so compliance analysts can query cases. Indexing is best effort;
// PostgreSQL stays the source of truth.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	elastic "github.com/elastic/go-elasticsearch/v8"

	"github.com/banking/aml-compliance/internal/config"
	"github.com/banking/aml-compliance/internal/domain"
)

type CaseIndex struct {
	client         *elastic.Client
	sarIndex       string
	screeningIndex string
}

// NewCaseIndex creates the index client and verifies connectivity.
func NewCaseIndex(cfg config.ElasticsearchConfig) (*CaseIndex, error) {
	client, err := elastic.NewClient(elastic.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	if _, err = client.Info(); err != nil {
		return nil, fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}

	return &CaseIndex{
		client:         client,
		sarIndex:       cfg.SARIndex,
		screeningIndex: cfg.ScreeningIndex,
	}, nil
}

// IndexSAR indexes a suspicious activity report by its SAR id.
func (r *CaseIndex) IndexSAR(ctx context.Context, sar *domain.SuspiciousActivityReport) error {
	return r.index(ctx, r.sarIndex, sar.SARID.String(), sar)
}

// IndexScreening indexes a sanctions screening result by its screening id.
func (r *CaseIndex) IndexScreening(ctx context.Context, result *domain.SanctionsScreeningResult) error {
	return r.index(ctx, r.screeningIndex, result.ScreeningID.String(), result)
}

func (r *CaseIndex) index(ctx context.Context, index, docID string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := r.client.Index(
		index,
		bytes.NewReader(data),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(docID),
	)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

// SearchSARs runs a query-string search over indexed SARs, newest first.
func (r *CaseIndex) SearchSARs(ctx context.Context, query string, from, size int) ([]*domain.SuspiciousActivityReport, int64, error) {
	esQuery := map[string]any{
		"from": from,
		"size": size,
		"query": map[string]any{
			"query_string": map[string]any{
				"query": query,
			},
		},
		"sort": []map[string]any{
			{"report_date": "desc"},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, 0, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.sarIndex),
		r.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to perform search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("elasticsearch search error: %s", res.String())
	}

	var result struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}

	var sars []*domain.SuspiciousActivityReport
	for _, hit := range result.Hits.Hits {
		var sar domain.SuspiciousActivityReport
		if err := json.Unmarshal(hit.Source, &sar); err == nil {
			sars = append(sars, &sar)
		}
	}
	return sars, result.Hits.Total.Value, nil
}
