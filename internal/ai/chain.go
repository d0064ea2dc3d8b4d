package ai

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"product-transparency/backend/internal/scoring"
)

type scorerChain struct {
	primary Scorer
	policy  scoring.FallbackPolicy
}

// WithFallback returns a scorer that first asks primary and answers with the
// policy's fixed record when primary is missing, fails, or returns a result
// whose score disagrees with its breakdown. The returned scorer never errors.
func WithFallback(primary Scorer, policy scoring.FallbackPolicy) Scorer {
	return &scorerChain{primary: primary, policy: policy}
}

func (c *scorerChain) Score(ctx context.Context, data scoring.ProductData) (scoring.Result, error) {
	if c.primary == nil {
		return c.policy.Result(), nil
	}
	result, err := c.primary.Score(ctx, data)
	switch {
	case err != nil:
		logrus.WithError(err).Warn("scoring service unavailable, serving fallback score")
	case !result.Consistent():
		logrus.WithFields(logrus.Fields{
			"score":     result.Score,
			"total":     result.Breakdown.Total(),
			"breakdown": result.Breakdown,
		}).Warn("scoring service returned inconsistent breakdown, serving fallback score")
	default:
		return result, nil
	}
	return c.policy.Result(), nil
}

type questionChain struct {
	primary QuestionGenerator
}

// WithEmptyQuestions returns a generator that degrades to an empty list
// whenever primary is missing or fails.
func WithEmptyQuestions(primary QuestionGenerator) QuestionGenerator {
	return &questionChain{primary: primary}
}

func (c *questionChain) GenerateQuestions(ctx context.Context, category string, previous map[string]any) ([]json.RawMessage, error) {
	if c.primary == nil {
		return []json.RawMessage{}, nil
	}
	questions, err := c.primary.GenerateQuestions(ctx, category, previous)
	if err != nil {
		logrus.WithError(err).WithField("category", category).Warn("question service unavailable, continuing without follow-up questions")
		return []json.RawMessage{}, nil
	}
	if questions == nil {
		return []json.RawMessage{}, nil
	}
	return questions, nil
}
