// Package apiclient is a small typed client for the product transparency API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"product-transparency/backend/internal/catalog"
	"product-transparency/backend/internal/scoring"
	"product-transparency/backend/internal/wizard"
)

const maxErrorBody = 64 << 10

// FieldDetail is one entry of a validation error.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a non-2xx answer from the API.
type Error struct {
	Status  int
	Message string
	Details []FieldDetail
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("api %d: %s", e.Status, e.Message)
	}
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = d.Field + ": " + d.Message
	}
	return fmt.Sprintf("api %d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

// Product is the subset of a stored product the client reads back.
type Product struct {
	ID          string         `json:"id"`
	ProductName string         `json:"product_name"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Answers     map[string]any `json:"answers"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Created is the answer to a product submission.
type Created struct {
	Message           string            `json:"message"`
	Product           Product           `json:"product"`
	FollowUpQuestions []json.RawMessage `json:"followUpQuestions"`
}

// FollowUpTexts renders follow-up questions as display strings. Plain
// strings are used as is and objects contribute their "text" field.
func (c Created) FollowUpTexts() []string {
	out := make([]string, 0, len(c.FollowUpQuestions))
	for _, raw := range c.FollowUpQuestions {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			out = append(out, text)
			continue
		}
		var obj struct {
			Text     string `json:"text"`
			Question string `json:"question"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			if obj.Text != "" {
				out = append(out, obj.Text)
			} else if obj.Question != "" {
				out = append(out, obj.Question)
			}
		}
	}
	return out
}

// Questions is the intake catalog served by the API.
type Questions struct {
	Steps      []catalog.Batch `json:"steps"`
	Categories []string        `json:"categories"`
	Audiences  []string        `json:"audiences"`
}

// Report is a transparency report as served by the API.
type Report struct {
	ProductID       string            `json:"productId"`
	ProductName     string            `json:"productName"`
	Category        string            `json:"category"`
	Score           int               `json:"score"`
	Breakdown       scoring.Breakdown `json:"breakdown"`
	Recommendations []string          `json:"recommendations"`
	GeneratedAt     time.Time         `json:"generatedAt"`
}

// Client calls the API at a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid api url %q", baseURL)
	}
	c := &Client{baseURL: base, httpClient: &http.Client{Timeout: 60 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Questions fetches the intake catalog.
func (c *Client) Questions(ctx context.Context) (Questions, error) {
	var out Questions
	err := c.doJSON(ctx, http.MethodGet, "/api/questions", nil, &out)
	return out, err
}

// CreateProduct submits a finished wizard.
func (c *Client) CreateProduct(ctx context.Context, sub wizard.Submission) (Created, error) {
	var out Created
	err := c.doJSON(ctx, http.MethodPost, "/api/products", sub, &out)
	return out, err
}

// Report fetches the JSON transparency report for a product.
func (c *Client) Report(ctx context.Context, productID string) (Report, error) {
	var out Report
	err := c.doJSON(ctx, http.MethodGet, "/api/reports/"+url.PathEscape(productID), nil, &out)
	return out, err
}

// ReportPDF streams the PDF report for a product into w.
func (c *Client) ReportPDF(ctx context.Context, productID string, w io.Writer) error {
	resp, err := c.send(ctx, http.MethodGet, "/api/reports/"+url.PathEscape(productID)+"/pdf", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/pdf") {
		return fmt.Errorf("unexpected content type %q", ct)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("download pdf: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.send(ctx, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs the request and turns non-2xx answers into *Error. The
// caller closes the body of a successful response.
func (c *Client) send(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, application/pdf")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, decodeError(resp)
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Details []FieldDetail   `json:"details"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Error) == 0 {
		return apiErr
	}
	apiErr.Details = envelope.Details

	var flat string
	if err := json.Unmarshal(envelope.Error, &flat); err == nil {
		apiErr.Message = flat
		return apiErr
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
		apiErr.Message = nested.Message
	}
	return apiErr
}

// IsValidation reports whether err is a 400 answer carrying field details.
func IsValidation(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && len(apiErr.Details) > 0
}
