package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-transparency/backend/internal/apiclient"
	"product-transparency/backend/internal/wizard"
)

var (
	step1 = []string{"Granola", "1", "Acme", "Acme Co", "Oats and honey", "everyone"}
	step2 = []string{"oats, honey", "none", "200kcal", "", "1", ""}
	step3 = []string{"Kenya", "fair wages", "", "solar", "paper", "", ""}
)

func script(parts ...[]string) io.Reader {
	var lines []string
	for _, p := range parts {
		lines = append(lines, p...)
	}
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func blanks(n int) []string { return make([]string, n) }

type recordingSubmitter struct {
	calls int
	fail  int
	got   wizard.Submission
}

func (r *recordingSubmitter) Submit(_ context.Context, s wizard.Submission) error {
	r.calls++
	if r.calls <= r.fail {
		return errors.New("api unavailable")
	}
	r.got = s
	return nil
}

func TestIntakeHappyPath(t *testing.T) {
	sub := &recordingSubmitter{}
	var out bytes.Buffer

	w, err := newIntake(script(step1, step2, step3, []string{"y"}), &out).run(context.Background(), wizard.New(), sub)
	require.NoError(t, err)
	assert.Equal(t, wizard.Done, w.State())
	assert.Equal(t, 1, sub.calls)

	assert.Equal(t, "Granola", sub.got.ProductName)
	assert.Equal(t, "Food & Snacks", sub.got.Category)
	assert.Equal(t, "Everyone", sub.got.TargetAudience)
	assert.Equal(t, "Non-GMO", sub.got.Answers["gmo_status"])
	assert.Equal(t, "oats, honey", sub.got.Answers["ingredients"])
	assert.NotContains(t, sub.got.Answers, "additives")
	assert.Contains(t, out.String(), "Review your answers:")
	assert.Contains(t, out.String(), "1) Food & Snacks")
}

func TestIntakeReasksIncompleteStep(t *testing.T) {
	sub := &recordingSubmitter{}
	var out bytes.Buffer

	missingName := append([]string{""}, step1[1:]...)
	fixName := append([]string{"Granola"}, blanks(5)...)
	_, err := newIntake(script(missingName, fixName, step2, step3, []string{"y"}), &out).run(context.Background(), wizard.New(), sub)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "product_name: This field is required")
	assert.Contains(t, out.String(), "[Acme] ")
	assert.Equal(t, "Acme", sub.got.Brand)
	assert.Equal(t, "Granola", sub.got.ProductName)
}

func TestIntakeBackKeepsAnswers(t *testing.T) {
	sub := &recordingSubmitter{}
	var out bytes.Buffer

	in := script(
		[]string{cmdBack},
		step1,
		[]string{cmdBack},
		blanks(6),
		step2,
		step3,
		[]string{cmdBack},
		blanks(7),
		[]string{"y"},
	)
	w, err := newIntake(in, &out).run(context.Background(), wizard.New(), sub)
	require.NoError(t, err)
	assert.Equal(t, wizard.Done, w.State())
	assert.Contains(t, out.String(), "Already at the first step.")
	assert.Equal(t, "Granola", sub.got.ProductName)
	assert.Equal(t, "solar", sub.got.Answers["sustainability"])
}

func TestIntakeBackMidStepKeepsTypedAnswers(t *testing.T) {
	sub := &recordingSubmitter{}
	var out bytes.Buffer

	in := script(
		step1,
		[]string{"oats, honey", "none", cmdBack},
		blanks(6),
		[]string{"", "", "200kcal", "", "1", ""},
		step3,
		[]string{"y"},
	)
	w, err := newIntake(in, &out).run(context.Background(), wizard.New(), sub)
	require.NoError(t, err)
	assert.Equal(t, wizard.Done, w.State())
	assert.Equal(t, "oats, honey", sub.got.Answers["ingredients"])
	assert.Equal(t, "none", sub.got.Answers["allergens"])
	assert.Contains(t, out.String(), "[oats, honey] ")
}

func TestIntakeHintsAtValidationFailure(t *testing.T) {
	sub := wizard.SubmitterFunc(func(context.Context, wizard.Submission) error {
		return &apiclient.Error{
			Status:  http.StatusBadRequest,
			Message: "Validation error",
			Details: []apiclient.FieldDetail{{Field: "category", Message: "Invalid category"}},
		}
	})
	var out bytes.Buffer

	_, err := newIntake(script(step1, step2, step3, []string{"y", "n"}), &out).run(context.Background(), wizard.New(), sub)
	require.ErrorIs(t, err, errAborted)
	assert.Contains(t, out.String(), "category: Invalid category")
	assert.Contains(t, out.String(), "Type :back to correct")
}

func TestIntakeRetriesFailedSubmission(t *testing.T) {
	sub := &recordingSubmitter{fail: 1}
	var out bytes.Buffer

	w, err := newIntake(script(step1, step2, step3, []string{"y", "y"}), &out).run(context.Background(), wizard.New(), sub)
	require.NoError(t, err)
	assert.Equal(t, wizard.Done, w.State())
	assert.Equal(t, 2, sub.calls)
	assert.Contains(t, out.String(), "Submission failed")
}

func TestIntakeAbort(t *testing.T) {
	tests := []struct {
		name string
		in   io.Reader
		want error
	}{
		{"quit", script([]string{"Granola", cmdQuit}), errAborted},
		{"decline", script(step1, step2, step3, []string{"n"}), errAborted},
		{"eof", script([]string{"Granola"}), io.ErrUnexpectedEOF},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := &recordingSubmitter{}
			_, err := newIntake(tc.in, io.Discard).run(context.Background(), wizard.New(), sub)
			require.ErrorIs(t, err, tc.want)
			assert.Zero(t, sub.calls)
		})
	}
}

func TestReportCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/reports/abc123":
			_, _ = io.WriteString(w, `{"productId":"abc123","productName":"Granola","score":85,"breakdown":{"ingredients":20,"sourcing":25,"certifications":20,"environmental":20},"recommendations":["Add supply chain transparency"],"generatedAt":"2026-01-02T03:04:05Z"}`)
		case "/api/reports/abc123/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = io.WriteString(w, "%PDF-1.3 fake")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--api", srv.URL, "report", "abc123"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Transparency Score: 85/100")
	assert.Contains(t, out.String(), "- Add supply chain transparency")

	path := filepath.Join(t.TempDir(), "report.pdf")
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--api", srv.URL, "report", "abc123", "--pdf", path})
	require.NoError(t, root.Execute())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 fake", string(data))

	root = newRootCmd()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--api", srv.URL, "report", "bad$id"})
	assert.Error(t, root.Execute())
}

func TestQuestionsCommandLocal(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"questions", "--local"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Step 1: Basic Information")
	assert.Contains(t, out.String(), "* product_name")
}
