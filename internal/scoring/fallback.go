package scoring

import (
	"errors"
	"fmt"
)

// FallbackPolicy is the record served in place of a live score when the scoring
// service cannot be reached.
type FallbackPolicy struct {
	Score           int       `yaml:"score"`
	Breakdown       Breakdown `yaml:"breakdown"`
	Recommendations []string  `yaml:"recommendations"`
}

// DefaultFallback returns the stock fallback record: 85 overall.
func DefaultFallback() FallbackPolicy {
	return FallbackPolicy{
		Score: 85,
		Breakdown: Breakdown{
			Ingredients:    20,
			Sourcing:       25,
			Certifications: 20,
			Environmental:  20,
		},
		Recommendations: []string{
			"Add supply chain transparency",
			"Include carbon footprint data",
		},
	}
}

// Validate checks that the policy is in range and internally consistent.
func (p FallbackPolicy) Validate() error {
	if p.Score < 0 || p.Score > MaxScore {
		return fmt.Errorf("score %d outside 0-%d", p.Score, MaxScore)
	}
	for _, line := range p.Breakdown.Lines() {
		if line.Points < 0 || line.Points > ComponentMax {
			return fmt.Errorf("%s %d outside 0-%d", line.Label, line.Points, ComponentMax)
		}
	}
	if !p.Result().Consistent() {
		return errors.New("score does not match breakdown total")
	}
	return nil
}

// Result returns a copy of the fallback record.
func (p FallbackPolicy) Result() Result {
	recs := make([]string, len(p.Recommendations))
	copy(recs, p.Recommendations)
	return Result{
		Score:           p.Score,
		Breakdown:       p.Breakdown,
		Recommendations: recs,
	}
}
