// Package wizard implements the four-step product disclosure intake as a
// finite-state machine independent of any user interface.
//
// A Wizard is a value. Every transition returns a new Wizard and leaves the
// receiver untouched, so callers can keep earlier states around (for undo or
// tests) without them changing underneath.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"product-transparency/backend/internal/catalog"
)

// State is a position in the intake flow.
type State int

const (
	Step1 State = iota + 1
	Step2
	Step3
	Review
	Submitting
	Done
)

func (s State) String() string {
	switch s {
	case Step1:
		return "step1"
	case Step2:
		return "step2"
	case Step3:
		return "step3"
	case Review:
		return "review"
	case Submitting:
		return "submitting"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrNotAtReview   = errors.New("wizard: finalize is only allowed at the review step")
	ErrAtFirstStep   = errors.New("wizard: already at the first step")
	ErrClosed        = errors.New("wizard: submission already in progress or done")
	ErrNoSubmitter   = errors.New("wizard: submitter is nil")
	ErrWrongBatchSet = errors.New("wizard: exactly three question batches are required")
)

// FieldError describes one unanswered or invalid question.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// IncompleteError is returned by Advance when the current step fails validation.
type IncompleteError struct {
	Step   State
	Fields []FieldError
}

func (e *IncompleteError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return fmt.Sprintf("wizard: %s incomplete: %s", e.Step, strings.Join(names, ", "))
}

// Answers maps question ids to answer values.
type Answers map[string]any

// Clone returns an independent copy. Slice values are copied as well.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		switch t := v.(type) {
		case []string:
			v = append([]string(nil), t...)
		case []any:
			v = append([]any(nil), t...)
		}
		out[k] = v
	}
	return out
}

// Submission is the aggregate handed to the product API on finalize.
type Submission struct {
	ProductName    string         `json:"product_name"`
	Category       string         `json:"category"`
	Description    string         `json:"description"`
	Brand          string         `json:"brand_name,omitempty"`
	Manufacturer   string         `json:"manufacturer,omitempty"`
	TargetAudience string         `json:"target_audience,omitempty"`
	Answers        map[string]any `json:"answers,omitempty"`
}

// Submitter delivers a finished submission, typically over HTTP.
type Submitter interface {
	Submit(ctx context.Context, s Submission) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, s Submission) error

func (f SubmitterFunc) Submit(ctx context.Context, s Submission) error { return f(ctx, s) }

// Wizard is the intake state machine.
type Wizard struct {
	state   State
	answers Answers
	errors  []FieldError
	batches []catalog.Batch
}

// New starts a wizard over the standard question batches.
func New() Wizard {
	w, _ := NewWithBatches(catalog.Batches())
	return w
}

// NewWithBatches starts a wizard over custom question batches, one per step.
func NewWithBatches(batches []catalog.Batch) (Wizard, error) {
	if len(batches) != 3 {
		return Wizard{}, ErrWrongBatchSet
	}
	return Wizard{state: Step1, answers: Answers{}, batches: batches}, nil
}

// State returns the current position.
func (w Wizard) State() State { return w.state }

// Errors returns the validation errors from the last rejected Advance.
func (w Wizard) Errors() []FieldError {
	return append([]FieldError(nil), w.errors...)
}

// Answers returns a copy of everything collected so far.
func (w Wizard) Answers() Answers { return w.answers.Clone() }

// Value returns the previously entered answer for a question, used to prefill
// inputs when a step is revisited.
func (w Wizard) Value(id string) (any, bool) {
	v, ok := w.answers[id]
	return v, ok
}

// Questions returns the questions of the current step; nil outside Step1..Step3.
func (w Wizard) Questions() []catalog.Question {
	if w.state < Step1 || w.state > Step3 {
		return nil
	}
	return w.batches[w.state-1].Questions
}

// Batch returns the question batch of the current step.
func (w Wizard) Batch() (catalog.Batch, bool) {
	if w.state < Step1 || w.state > Step3 {
		return catalog.Batch{}, false
	}
	return w.batches[w.state-1], true
}

// Defaults returns the previously entered values for the current step's questions.
func (w Wizard) Defaults() Answers {
	out := Answers{}
	for _, q := range w.Questions() {
		if v, ok := w.answers[q.ID]; ok {
			out[q.ID] = v
		}
	}
	return out.Clone()
}

// Advance merges stepAnswers and, when the current step has questions,
// validates them before moving on. On failure the merged answers are kept,
// the state does not change and an *IncompleteError is returned.
func (w Wizard) Advance(stepAnswers Answers) (Wizard, error) {
	if w.state == Submitting || w.state == Done {
		return w, ErrClosed
	}
	next := w.with(stepAnswers)
	if next.state == Review {
		return next, nil
	}

	var problems []FieldError
	for _, q := range next.Questions() {
		if msg := q.Check(next.answers[q.ID]); msg != "" {
			problems = append(problems, FieldError{Field: q.ID, Message: msg})
		}
	}
	if len(problems) > 0 {
		next.errors = problems
		return next, &IncompleteError{Step: next.state, Fields: problems}
	}
	next.state++
	return next, nil
}

// Retreat moves back one step without discarding any answers.
func (w Wizard) Retreat() (Wizard, error) {
	switch w.state {
	case Step1:
		return w, ErrAtFirstStep
	case Submitting, Done:
		return w, ErrClosed
	}
	next := w.with(nil)
	next.state--
	return next, nil
}

// Merge records answers without validating or changing the step. It is a
// no-op once the wizard is submitting or done.
func (w Wizard) Merge(a Answers) Wizard {
	if w.state == Submitting || w.state == Done {
		return w
	}
	return w.with(a)
}

// Submission packages the collected answers. Top-level fields are lifted out
// of the answer map; everything else stays in Answers.
func (w Wizard) Submission() Submission {
	s := Submission{
		ProductName:    catalog.AnswerText(w.answers[catalog.FieldProductName]),
		Category:       catalog.AnswerText(w.answers[catalog.FieldCategory]),
		Description:    catalog.AnswerText(w.answers[catalog.FieldDescription]),
		Brand:          catalog.AnswerText(w.answers[catalog.FieldBrand]),
		Manufacturer:   catalog.AnswerText(w.answers[catalog.FieldManufacturer]),
		TargetAudience: catalog.AnswerText(w.answers[catalog.FieldTargetAudience]),
		Answers:        map[string]any{},
	}
	for k, v := range w.answers.Clone() {
		if !catalog.IsTopLevel(k) {
			s.Answers[k] = v
		}
	}
	return s
}

// Finalize hands the submission to submitter. It is only allowed at Review.
// On success the returned wizard is Done; on failure it is back at Review
// with all answers intact.
func (w Wizard) Finalize(ctx context.Context, submitter Submitter) (Wizard, error) {
	switch w.state {
	case Review:
	case Submitting, Done:
		return w, ErrClosed
	default:
		return w, ErrNotAtReview
	}
	if submitter == nil {
		return w, ErrNoSubmitter
	}

	pending := w.with(nil)
	pending.state = Submitting
	if err := submitter.Submit(ctx, pending.Submission()); err != nil {
		pending.state = Review
		return pending, fmt.Errorf("submit: %w", err)
	}
	pending.state = Done
	return pending, nil
}

// Entry is one collected answer as shown on the review step.
type Entry struct {
	Question string
	Value    string
}

// Summary lists collected answers in a stable order for the review step.
func (w Wizard) Summary() []Entry {
	keys := make([]string, 0, len(w.answers))
	for k := range w.answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Question: k, Value: catalog.AnswerText(w.answers[k])})
	}
	return out
}

// with returns a copy carrying merged answers and no transient errors.
func (w Wizard) with(extra Answers) Wizard {
	merged := w.answers.Clone()
	for k, v := range extra.Clone() {
		merged[k] = v
	}
	return Wizard{state: w.state, answers: merged, batches: w.batches}
}
