package scoring

import "strings"

const (
	// MaxScore is the ceiling of the overall transparency score.
	MaxScore = 100
	// ComponentMax is the ceiling of each breakdown component; four components
	// at their maximum add up to MaxScore.
	ComponentMax = 25
)

// Breakdown holds the four sub-scores that make up the overall score.
type Breakdown struct {
	Ingredients    int `json:"ingredients" yaml:"ingredients"`
	Sourcing       int `json:"sourcing" yaml:"sourcing"`
	Certifications int `json:"certifications" yaml:"certifications"`
	Environmental  int `json:"environmental" yaml:"environmental"`
}

// Line is a labelled breakdown component in display order.
type Line struct {
	Label  string
	Points int
}

// Total sums the components.
func (b Breakdown) Total() int {
	return b.Ingredients + b.Sourcing + b.Certifications + b.Environmental
}

// Lines returns the components with their report labels.
func (b Breakdown) Lines() []Line {
	return []Line{
		{Label: "Ingredient Disclosure", Points: b.Ingredients},
		{Label: "Sourcing Information", Points: b.Sourcing},
		{Label: "Certifications", Points: b.Certifications},
		{Label: "Environmental Impact", Points: b.Environmental},
	}
}

func (b Breakdown) clamp() Breakdown {
	return Breakdown{
		Ingredients:    clampInt(b.Ingredients, 0, ComponentMax),
		Sourcing:       clampInt(b.Sourcing, 0, ComponentMax),
		Certifications: clampInt(b.Certifications, 0, ComponentMax),
		Environmental:  clampInt(b.Environmental, 0, ComponentMax),
	}
}

// Result is a scored transparency assessment.
type Result struct {
	Score           int       `json:"score"`
	Breakdown       Breakdown `json:"breakdown"`
	Recommendations []string  `json:"recommendations"`
}

// Consistent reports whether the overall score matches its breakdown.
func (r Result) Consistent() bool {
	return r.Score == min(MaxScore, r.Breakdown.Total())
}

// Sanitize clamps scores into range and drops blank recommendations.
func (r Result) Sanitize() Result {
	out := Result{
		Score:           clampInt(r.Score, 0, MaxScore),
		Breakdown:       r.Breakdown.clamp(),
		Recommendations: make([]string, 0, len(r.Recommendations)),
	}
	for _, rec := range r.Recommendations {
		if rec = strings.TrimSpace(rec); rec != "" {
			out.Recommendations = append(out.Recommendations, rec)
		}
	}
	return out
}

func clampInt(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
