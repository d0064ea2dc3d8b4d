package ai

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

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"product-transparency/backend/internal/scoring"
)

const (
	questionsPath = "/generate-questions"
	scorePath     = "/transparency-score"

	maxResponseBytes = 1 << 20
	maxBackoff       = 2 * time.Second
)

// QuestionGenerator suggests follow-up questions for a product category.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, category string, previous map[string]any) ([]json.RawMessage, error)
}

// Scorer rates how transparent a product disclosure is.
type Scorer interface {
	Score(ctx context.Context, data scoring.ProductData) (scoring.Result, error)
}

// Config holds AI service connection settings.
type Config struct {
	BaseURL         string
	QuestionTimeout time.Duration
	ScoreTimeout    time.Duration
	MaxRetries      int
	InitialBackoff  time.Duration
	HTTPClient      *http.Client
}

// Client talks to the external AI service over JSON/HTTP.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	questionTimeout time.Duration
	scoreTimeout    time.Duration
	maxRetries      uint64
	backoff         time.Duration
}

// ErrDisabled is returned when no AI service URL is configured.
var ErrDisabled = errors.New("ai service disabled")

// StatusError reports a non-200 answer from the service.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai service %s status %d", e.Path, e.Code)
}

// NewClient constructs a Client. An empty base URL yields ErrDisabled.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrDisabled
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ai service url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("ai service url %q: scheme must be http or https", base)
	}

	client := &Client{
		httpClient:      cfg.HTTPClient,
		baseURL:         base,
		questionTimeout: cfg.QuestionTimeout,
		scoreTimeout:    cfg.ScoreTimeout,
		backoff:         cfg.InitialBackoff,
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}
	if client.questionTimeout <= 0 {
		client.questionTimeout = 10 * time.Second
	}
	if client.scoreTimeout <= 0 {
		client.scoreTimeout = 10 * time.Second
	}
	if client.backoff <= 0 {
		client.backoff = 250 * time.Millisecond
	}
	if cfg.MaxRetries > 0 {
		client.maxRetries = uint64(cfg.MaxRetries)
	}
	return client, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// GenerateQuestions asks the service for follow-up questions.
func (c *Client) GenerateQuestions(ctx context.Context, category string, previous map[string]any) ([]json.RawMessage, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if previous == nil {
		previous = map[string]any{}
	}
	var resp questionResponse
	req := questionRequest{ProductCategory: category, PreviousAnswers: previous}
	if err := c.post(ctx, questionsPath, c.questionTimeout, req, &resp); err != nil {
		return nil, err
	}
	if resp.Questions == nil {
		return []json.RawMessage{}, nil
	}
	return resp.Questions, nil
}

// Score asks the service to rate the supplied product data.
func (c *Client) Score(ctx context.Context, data scoring.ProductData) (scoring.Result, error) {
	if !c.Enabled() {
		return scoring.Result{}, ErrDisabled
	}
	var resp scoreResponse
	if err := c.post(ctx, scorePath, c.scoreTimeout, scoreRequest{ProductData: data}, &resp); err != nil {
		return scoring.Result{}, err
	}
	if resp.Score == nil {
		return scoring.Result{}, errors.New("ai score missing from response")
	}
	raw := scoring.Result{
		Score:           *resp.Score,
		Breakdown:       resp.Breakdown,
		Recommendations: resp.Recommendations,
	}
	result := raw.Sanitize()
	if result.Score != raw.Score || result.Breakdown != raw.Breakdown {
		logrus.WithFields(logrus.Fields{
			"raw_score":     raw.Score,
			"raw_breakdown": raw.Breakdown,
			"score":         result.Score,
		}).Warn("ai score out of range, clamped")
	}
	return result, nil
}

// post sends one JSON request with a per-attempt timeout, retrying transport
// failures and retryable statuses with capped exponential backoff.
func (c *Client) post(ctx context.Context, path string, timeout time.Duration, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	backoff := retry.NewExponential(c.backoff)
	backoff = retry.WithCappedDuration(maxBackoff, backoff)
	backoff = retry.WithMaxRetries(c.maxRetries, backoff)

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		start := time.Now()
		err := c.send(ctx, path, timeout, body, out)
		if err == nil {
			return nil
		}
		entry := logrus.WithError(err).WithFields(logrus.Fields{
			"path":     path,
			"attempt":  attempt,
			"duration": time.Since(start),
		})
		if shouldRetry(ctx, err) {
			entry.Debug("ai service call failed, retrying")
			return retry.RetryableError(err)
		}
		entry.Debug("ai service call failed")
		return err
	})
}

func (c *Client) send(ctx context.Context, path string, timeout time.Duration, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ai service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return &StatusError{Path: path, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode ai service response: %w", err)
	}
	return nil
}

// shouldRetry retries throttling, server errors and connection failures. A
// timed-out attempt is not retried so the caller's latency stays bounded by
// one timeout.
func shouldRetry(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Code == http.StatusTooManyRequests || status.Code >= http.StatusInternalServerError
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
