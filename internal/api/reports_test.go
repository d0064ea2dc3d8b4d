package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-transparency/backend/internal/ai"
	"product-transparency/backend/internal/report"
	"product-transparency/backend/internal/scoring"
)

func TestReportRoutesRejectMalformedIDs(t *testing.T) {
	ids := []string{
		"bad$id",
		"a.b",
		"a%20b",
		"semi;colon",
		strings.Repeat("a", 101),
	}
	for _, id := range ids {
		for _, suffix := range []string{"", "/pdf"} {
			t.Run(id[:min(len(id), 12)]+suffix, func(t *testing.T) {
				f := newFixture(t)
				rec := f.do(t, http.MethodGet, "/api/reports/"+id+suffix, nil)
				require.Equal(t, http.StatusBadRequest, rec.Code)
				assert.JSONEq(t, `{"error":"Invalid product ID"}`, rec.Body.String())
				assert.Zero(t, atomic.LoadInt32(&f.scorer.calls))
			})
		}
	}
}

func TestReportFallsBackWhenScorerTimesOut(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client, err := ai.NewClient(ai.Config{
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
		ScoreTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	f := newFixture(t, func(cfg *Config) { cfg.Scorer = client })

	rec := f.do(t, http.MethodGet, "/api/reports/abc123", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rep report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "abc123", rep.ProductID)
	assert.Equal(t, 85, rep.Score)
	assert.Equal(t, scoring.Breakdown{Ingredients: 20, Sourcing: 25, Certifications: 20, Environmental: 20}, rep.Breakdown)
	assert.Equal(t, []string{"Add supply chain transparency", "Include carbon footprint data"}, rep.Recommendations)
	assert.False(t, rep.GeneratedAt.IsZero())
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestReportUsesScorerAndStoredProduct(t *testing.T) {
	f := newFixture(t)
	f.scorer.err = nil
	f.scorer.result = scoring.Result{
		Score:           60,
		Breakdown:       scoring.Breakdown{Ingredients: 25, Sourcing: 25, Certifications: 10},
		Recommendations: []string{"Publish audits"},
	}

	rec := f.do(t, http.MethodPost, "/api/products", map[string]any{
		"product_name": "Organic Granola", "category": "Food", "description": "x",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["product"].(map[string]any)["id"].(string)

	rec = f.do(t, http.MethodGet, "/api/reports/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Organic Granola", body["productName"])
	assert.Equal(t, "Food", body["category"])
	assert.EqualValues(t, 60, body["score"])
	assert.Equal(t, []any{"Publish audits"}, body["recommendations"])
}

func TestReportFallbackPolicyIsConfigurable(t *testing.T) {
	policy := scoring.FallbackPolicy{Score: 40, Breakdown: scoring.Breakdown{Ingredients: 10, Sourcing: 10, Certifications: 10, Environmental: 10}}
	f := newFixture(t, func(cfg *Config) { cfg.Fallback = &policy })

	rec := f.do(t, http.MethodGet, "/api/reports/abc123", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 40, decode(t, rec)["score"])
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.scorer.calls))
}

func TestReportPDF(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/reports/abc123/pdf", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	disposition := rec.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "attachment"))
	assert.Contains(t, disposition, "abc123")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}
