package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Product is a stored disclosure submission.
type Product struct {
	ID             string    `gorm:"primaryKey;size:100"`
	Name           string    `gorm:"size:200;index"`
	Category       string    `gorm:"size:100"`
	CategoryKey    string    `gorm:"size:100;index"`
	Description    string    `gorm:"type:text"`
	Brand          string    `gorm:"size:200"`
	Manufacturer   string    `gorm:"size:200"`
	TargetAudience string    `gorm:"size:100"`
	AnswersJSON    string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

// SetAnswers persists the answer map as JSON.
func (p *Product) SetAnswers(answers map[string]any) error {
	if answers == nil {
		p.AnswersJSON = "{}"
		return nil
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	p.AnswersJSON = string(payload)
	return nil
}

// Answers returns the stored answer map, never nil.
func (p *Product) Answers() map[string]any {
	out := map[string]any{}
	if strings.TrimSpace(p.AnswersJSON) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(p.AnswersJSON), &out); err != nil {
		return map[string]any{}
	}
	return out
}

// ProductPatch carries a partial update. Nil fields are left untouched and
// Answers keys are merged into the stored answers.
type ProductPatch struct {
	Name           *string
	Category       *string
	Description    *string
	Brand          *string
	Manufacturer   *string
	TargetAudience *string
	Answers        map[string]any
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Description == nil &&
		p.Brand == nil && p.Manufacturer == nil && p.TargetAudience == nil && len(p.Answers) == 0
}

// ProductQuery holds filters and pagination for listing products.
type ProductQuery struct {
	CategoryKey string
	Search      string
	Offset      int
	Limit       int
}
