package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"product-transparency/backend/internal/apiclient"
	"product-transparency/backend/internal/catalog"
	"product-transparency/backend/internal/wizard"
)

const (
	cmdBack = ":back"
	cmdQuit = ":quit"
)

var errAborted = errors.New("intake aborted")

// intake drives a wizard from line-oriented input.
type intake struct {
	in  *bufio.Scanner
	out io.Writer
}

func newIntake(in io.Reader, out io.Writer) *intake {
	return &intake{in: bufio.NewScanner(in), out: out}
}

// run walks the wizard until it is Done. Validation problems re-ask the
// step, ":back" returns to the previous step and ":quit" aborts.
func (p *intake) run(ctx context.Context, w wizard.Wizard, submitter wizard.Submitter) (wizard.Wizard, error) {
	fmt.Fprintln(p.out, "Type :back to return to the previous step or :quit to abort.")
	for {
		if err := ctx.Err(); err != nil {
			return w, err
		}
		switch w.State() {
		case wizard.Done:
			return w, nil
		case wizard.Review:
			next, err := p.review(ctx, w, submitter)
			if err != nil {
				return next, err
			}
			w = next
		default:
			next, err := p.step(w)
			if err != nil {
				return next, err
			}
			w = next
		}
	}
}

func (p *intake) step(w wizard.Wizard) (wizard.Wizard, error) {
	batch, _ := w.Batch()
	fmt.Fprintf(p.out, "\nStep %d/3: %s\n", batch.Step, batch.Title)

	answers := wizard.Answers{}
	for _, q := range batch.Questions {
		p.ask(w, q)
		line, err := p.readLine()
		if err != nil {
			return w, err
		}
		switch line {
		case cmdQuit:
			return w, errAborted
		case cmdBack:
			typed := w.Merge(answers)
			prev, err := typed.Retreat()
			if errors.Is(err, wizard.ErrAtFirstStep) {
				fmt.Fprintln(p.out, "Already at the first step.")
				return typed, nil
			}
			return prev, err
		case "":
			continue
		}
		answers[q.ID] = parseAnswer(q, line)
	}

	next, err := w.Advance(answers)
	var incomplete *wizard.IncompleteError
	if errors.As(err, &incomplete) {
		fmt.Fprintln(p.out, "Please fix the following:")
		for _, f := range incomplete.Fields {
			fmt.Fprintf(p.out, "  - %s: %s\n", f.Field, f.Message)
		}
		return next, nil
	}
	return next, err
}

func (p *intake) ask(w wizard.Wizard, q catalog.Question) {
	label := q.Text
	if !q.Required {
		label += " (optional)"
	}
	fmt.Fprintln(p.out, label)
	for i, opt := range q.Options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}
	if prev, ok := w.Value(q.ID); ok && !catalog.IsBlank(prev) {
		fmt.Fprintf(p.out, "[%s] ", catalog.AnswerText(prev))
	}
	fmt.Fprint(p.out, "> ")
}

func (p *intake) review(ctx context.Context, w wizard.Wizard, submitter wizard.Submitter) (wizard.Wizard, error) {
	fmt.Fprintln(p.out, "\nReview your answers:")
	for _, e := range w.Summary() {
		fmt.Fprintf(p.out, "  %s: %s\n", e.Question, e.Value)
	}
	fmt.Fprint(p.out, "Submit? [y/N] ")

	line, err := p.readLine()
	if err != nil {
		return w, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		next, err := w.Finalize(ctx, submitter)
		if err != nil {
			fmt.Fprintf(p.out, "Submission failed: %v\n", err)
			if apiclient.IsValidation(err) {
				fmt.Fprintln(p.out, "Type :back to correct the answers listed above.")
			}
			return next, nil
		}
		return next, nil
	case cmdBack, "b", "back":
		return w.Retreat()
	default:
		return w, errAborted
	}
}

func (p *intake) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// parseAnswer maps option numbers and case-insensitive option names onto
// the canonical option text.
func parseAnswer(q catalog.Question, line string) any {
	switch q.Type {
	case catalog.Select:
		return resolveOption(q.Options, line)
	case catalog.MultiSelect:
		parts := strings.Split(line, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, resolveOption(q.Options, part))
			}
		}
		return out
	}
	return line
}

func resolveOption(options []string, value string) string {
	if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	for _, opt := range options {
		if strings.EqualFold(opt, value) {
			return opt
		}
	}
	return value
}
