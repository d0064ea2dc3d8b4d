// Package report assembles transparency reports for stored products and
// renders them as JSON documents or PDF files.
package report

import (
	"context"
	"errors"
	"regexp"
	"time"

	"product-transparency/backend/internal/ai"
	"product-transparency/backend/internal/scoring"
	"product-transparency/backend/internal/store"
)

// MaxProductIDLength bounds the identifiers accepted by report lookups.
const MaxProductIDLength = 100

var productIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidProductID reports whether id is safe to look up and echo back.
func ValidProductID(id string) bool {
	return id != "" && len(id) <= MaxProductIDLength && productIDPattern.MatchString(id)
}

// Report is a computed transparency report. It is never persisted.
type Report struct {
	ProductID       string            `json:"productId"`
	ProductName     string            `json:"productName"`
	Category        string            `json:"category"`
	Score           int               `json:"score"`
	Breakdown       scoring.Breakdown `json:"breakdown"`
	Recommendations []string          `json:"recommendations"`
	GeneratedAt     time.Time         `json:"generatedAt"`
}

// ProductSource loads stored products.
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (*store.Product, error)
}

// Generator computes reports. JSON and PDF output share it so both formats
// carry the same numbers.
type Generator struct {
	products ProductSource
	scorer   ai.Scorer
	now      func() time.Time
}

// NewGenerator wires a generator. scorer is expected to degrade on its own
// (see ai.WithFallback); products may be nil when nothing is stored.
func NewGenerator(products ProductSource, scorer ai.Scorer) *Generator {
	return &Generator{products: products, scorer: scorer, now: time.Now}
}

// Build scores the product with the given id. Unknown ids are scored on an
// empty disclosure rather than rejected.
func (g *Generator) Build(ctx context.Context, id string) (Report, error) {
	rep := Report{ProductID: id}
	var answers map[string]any
	if g.products != nil {
		product, err := g.products.GetProduct(ctx, id)
		switch {
		case err == nil:
			rep.ProductName = product.Name
			rep.Category = product.Category
			answers = product.Answers()
		case errors.Is(err, store.ErrNotFound):
		default:
			return Report{}, err
		}
	}

	result, err := g.scorer.Score(ctx, scoring.DeriveProductData(answers))
	if err != nil {
		return Report{}, err
	}
	rep.Score = result.Score
	rep.Breakdown = result.Breakdown
	rep.Recommendations = result.Recommendations
	if rep.Recommendations == nil {
		rep.Recommendations = []string{}
	}
	rep.GeneratedAt = g.now().UTC()
	return rep, nil
}
