package translation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"complaint-workers/internal/common/config"
	"complaint-workers/internal/common/database"
	apperrors "complaint-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newElasticServer(t *testing.T, handler func(body map[string]interface{}) string) *database.ElasticsearchClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		_, _ = w.Write([]byte(handler(body)))
	}))
	t.Cleanup(server.Close)

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return es
}

func TestElasticCatalog_Lookup(t *testing.T) {
	var received map[string]interface{}
	es := newElasticServer(t, func(body map[string]interface{}) string {
		received = body
		return `{"hits":{"hits":[{"_id":"t1","_score":0,"_source":{"key":"NewPositionAdded","locale":"en","resellerId":7,"text":"Added for seller"}}]}}`
	})

	c := NewElasticCatalog(es, "translations")
	text, err := c.Lookup(context.Background(), KeyNewPositionAdded, "en", 7)
	require.NoError(t, err)
	assert.Equal(t, "Added for seller", text)

	filters := received["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
	require.Len(t, filters, 3)
	resellers := filters[2].(map[string]interface{})["terms"].(map[string]interface{})["resellerId"].([]interface{})
	assert.ElementsMatch(t, []interface{}{float64(0), float64(7)}, resellers)
}

func TestElasticCatalog_NoHits(t *testing.T) {
	es := newElasticServer(t, func(map[string]interface{}) string {
		return `{"hits":{"hits":[]}}`
	})

	c := NewElasticCatalog(es, "translations")
	_, err := c.Lookup(context.Background(), KeyNewPositionAdded, "en", 7)
	assert.ErrorIs(t, err, ErrMissing)
}

func TestElasticCatalog_SearchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"search_phase_execution_exception"}}`))
	}))
	t.Cleanup(server.Close)

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)

	c := NewElasticCatalog(es, "translations")
	_, err = c.Lookup(context.Background(), KeyNewPositionAdded, "en", 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissing)

	stdErr := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeSearchQueryFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "index: translations")
}
