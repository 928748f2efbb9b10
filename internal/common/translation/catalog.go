package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"complaint-workers/internal/common/database"
	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/pkg/registry"
)

// ErrMissing is returned by a Catalog that has no text for the lookup.
var ErrMissing = errors.New("translation: missing")

// Catalog looks up the raw text of key for a locale. Implementations prefer
// the reseller's own text over the global one.
type Catalog interface {
	Lookup(ctx context.Context, key TemplateKey, locale string, resellerID int64) (string, error)
}

// FileCatalog serves texts from a translation registry file.
type FileCatalog struct {
	reg *registry.TranslationRegistry
}

func NewFileCatalog(reg *registry.TranslationRegistry) *FileCatalog {
	return &FileCatalog{reg: reg}
}

// LoadFileCatalog loads and validates the registry at path.
func LoadFileCatalog(path string) (*FileCatalog, error) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load translation registry: %w", err)
	}
	return NewFileCatalog(reg), nil
}

func (c *FileCatalog) Lookup(_ context.Context, key TemplateKey, locale string, resellerID int64) (string, error) {
	if text, ok := c.reg.Lookup(string(key), locale, resellerID); ok {
		return text, nil
	}
	return "", fmt.Errorf("%w: %s/%s", ErrMissing, key, locale)
}

// Searcher is the part of the Elasticsearch client the catalog needs.
type Searcher interface {
	Search(ctx context.Context, index string, query map[string]interface{}) ([]database.SearchHit, error)
}

// ElasticCatalog serves texts from a translations index with documents of
// the form {"key", "locale", "resellerId", "text"}.
type ElasticCatalog struct {
	es    Searcher
	index string
}

func NewElasticCatalog(es Searcher, index string) *ElasticCatalog {
	return &ElasticCatalog{es: es, index: index}
}

func (c *ElasticCatalog) Lookup(ctx context.Context, key TemplateKey, locale string, resellerID int64) (string, error) {
	resellers := []int64{0}
	if resellerID != 0 {
		resellers = append(resellers, resellerID)
	}

	query := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"key": string(key)}},
					map[string]interface{}{"term": map[string]interface{}{"locale": locale}},
					map[string]interface{}{"terms": map[string]interface{}{"resellerId": resellers}},
				},
			},
		},
		// reseller override sorts before the global text
		"sort": []interface{}{
			map[string]interface{}{"resellerId": map[string]interface{}{"order": "desc"}},
		},
	}

	hits, err := c.es.Search(ctx, c.index, query)
	if err != nil {
		return "", apperrors.NewSearchQueryFailedError(c.index, err)
	}
	if len(hits) == 0 {
		return "", fmt.Errorf("%w: %s/%s", ErrMissing, key, locale)
	}

	var doc registry.Translation
	if err := json.Unmarshal(hits[0].Source, &doc); err != nil {
		return "", fmt.Errorf("failed to decode translation %s: %w", hits[0].ID, err)
	}
	if doc.Text == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrMissing, key, locale)
	}
	return doc.Text, nil
}
