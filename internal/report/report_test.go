package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-transparency/backend/internal/scoring"
	"product-transparency/backend/internal/store"
)

type memProducts map[string]*store.Product

func (m memProducts) GetProduct(_ context.Context, id string) (*store.Product, error) {
	p, ok := m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

type recordingScorer struct {
	got    scoring.ProductData
	result scoring.Result
	err    error
}

func (r *recordingScorer) Score(_ context.Context, data scoring.ProductData) (scoring.Result, error) {
	r.got = data
	return r.result, r.err
}

func TestValidProductID(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{"abc123", true},
		{"a-b_c", true},
		{"6f1c2f0e-8a8b-4c7e-9d55-3f2d8e6c1a90", true},
		{"", false},
		{"../etc/passwd", false},
		{"id with space", false},
		{"x';DROP", false},
		{strings.Repeat("a", MaxProductIDLength), true},
		{strings.Repeat("a", MaxProductIDLength+1), false},
	}
	for _, tc := range tests {
		if got := ValidProductID(tc.id); got != tc.expected {
			t.Fatalf("%q: expected %v got %v", tc.id, tc.expected, got)
		}
	}
}

func TestBuildUsesStoredAnswers(t *testing.T) {
	product := &store.Product{ID: "p1", Name: "Organic Granola", Category: "Food"}
	require.NoError(t, product.SetAnswers(map[string]any{"ingredients": "Oats", "certifications": "Organic"}))
	scorer := &recordingScorer{result: scoring.Result{Score: 40, Breakdown: scoring.Breakdown{Ingredients: 25, Certifications: 15}}}

	gen := NewGenerator(memProducts{"p1": product}, scorer)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gen.now = func() time.Time { return fixed }

	rep, err := gen.Build(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", rep.ProductID)
	assert.Equal(t, "Organic Granola", rep.ProductName)
	assert.Equal(t, 40, rep.Score)
	assert.Equal(t, []string{}, rep.Recommendations)
	assert.Equal(t, fixed, rep.GeneratedAt)
	assert.True(t, scorer.got.IngredientsDisclosed)
	assert.Equal(t, []string{"organic"}, scorer.got.Certifications)
}

func TestBuildUnknownProductScoresEmptyDisclosure(t *testing.T) {
	scorer := &recordingScorer{result: scoring.DefaultFallback().Result()}
	rep, err := NewGenerator(memProducts{}, scorer).Build(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", rep.ProductID)
	assert.Empty(t, rep.ProductName)
	assert.Equal(t, 85, rep.Score)
	assert.False(t, scorer.got.IngredientsDisclosed)
}

func TestBuildPropagatesErrors(t *testing.T) {
	boom := errors.New("scorer broke")
	_, err := NewGenerator(nil, &recordingScorer{err: boom}).Build(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestRenderPDF(t *testing.T) {
	rep := Report{
		ProductID:       "abc123",
		ProductName:     "Organic Granola",
		Category:        "Food",
		Score:           85,
		Breakdown:       scoring.DefaultFallback().Breakdown,
		Recommendations: []string{"Add supply chain transparency"},
		GeneratedAt:     time.Now(),
	}
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(context.Background(), &buf, rep))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestRenderPDFStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := RenderPDF(ctx, &buf, Report{ProductID: "abc123"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "product-abc123-report.pdf", Filename("abc123"))
}
