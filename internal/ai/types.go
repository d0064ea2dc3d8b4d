package ai

import (
	"encoding/json"

	"product-transparency/backend/internal/scoring"
)

// questionRequest is the body of POST /generate-questions.
type questionRequest struct {
	ProductCategory string         `json:"product_category"`
	PreviousAnswers map[string]any `json:"previous_answers"`
}

// questionResponse keeps each question as raw JSON: the service may answer
// with plain strings or with full question objects and both are passed on.
type questionResponse struct {
	Questions []json.RawMessage `json:"questions"`
}

// scoreRequest is the body of POST /transparency-score.
type scoreRequest struct {
	ProductData scoring.ProductData `json:"product_data"`
}

type scoreResponse struct {
	Score           *int              `json:"score"`
	Breakdown       scoring.Breakdown `json:"breakdown"`
	Recommendations []string          `json:"recommendations"`
}
