package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"product-transparency/backend/internal/scoring"
)

// DefaultJWTSecret is the development signing key. Production refuses to start with it.
const DefaultJWTSecret = "your-secret-key-change-in-production"

// Config holds every setting the API server needs.
type Config struct {
	Port         string                 `yaml:"port"`
	Env          string                 `yaml:"env"`
	CORSOrigins  []string               `yaml:"cors_origins"`
	JWTSecret    string                 `yaml:"jwt_secret"`
	TokenTTL     time.Duration          `yaml:"token_ttl"`
	DBPath       string                 `yaml:"db_path"`
	MaxBodyBytes int64                  `yaml:"max_body_bytes"`
	Log          LogConfig              `yaml:"log"`
	AIService    AIServiceConfig        `yaml:"ai_service"`
	RateLimit    RateLimitConfig        `yaml:"auth_rate_limit"`
	Fallback     scoring.FallbackPolicy `yaml:"fallback"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AIServiceConfig points at the question-generation and scoring collaborator.
type AIServiceConfig struct {
	BaseURL         string        `yaml:"base_url"`
	QuestionTimeout time.Duration `yaml:"question_timeout"`
	ScoreTimeout    time.Duration `yaml:"score_timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	InitialBackoff  time.Duration `yaml:"initial_backoff"`
}

// RateLimitConfig is a per-client token bucket for the auth endpoints.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port:         "5000",
		Env:          "development",
		CORSOrigins:  []string{"http://localhost:3000"},
		JWTSecret:    DefaultJWTSecret,
		TokenTTL:     7 * 24 * time.Hour,
		DBPath:       "data/transparency.db",
		MaxBodyBytes: 10 << 20,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		AIService: AIServiceConfig{
			BaseURL:         "http://localhost:8000",
			QuestionTimeout: 10 * time.Second,
			ScoreTimeout:    10 * time.Second,
			MaxRetries:      2,
			InitialBackoff:  250 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			RPS:   5,
			Burst: 10,
		},
		Fallback: scoring.DefaultFallback(),
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Production reports whether NODE_ENV selected production mode.
func (c Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("jwt secret is required")
	}
	if c.Production() && c.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if c.AIService.QuestionTimeout <= 0 || c.AIService.ScoreTimeout <= 0 {
		return errors.New("ai service timeouts must be positive")
	}
	if c.AIService.MaxRetries < 0 {
		return errors.New("ai service max retries cannot be negative")
	}
	if err := c.Fallback.Validate(); err != nil {
		return fmt.Errorf("fallback policy: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		c.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("NODE_ENV")); v != "" {
		c.Env = v
	}
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGIN")); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("JWT_SECRET"); strings.TrimSpace(v) != "" {
		c.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("AI_SERVICE_URL")); v != "" {
		c.AIService.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("DB_PATH")); v != "" {
		c.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		c.Log.Format = v
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"QUESTION_TIMEOUT", &c.AIService.QuestionTimeout},
		{"SCORE_TIMEOUT", &c.AIService.ScoreTimeout},
		{"TOKEN_TTL", &c.TokenTTL},
	}
	for _, d := range durations {
		v := strings.TrimSpace(os.Getenv(d.key))
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.target = parsed
	}

	if v := strings.TrimSpace(os.Getenv("AI_MAX_RETRIES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AI_MAX_RETRIES: %w", err)
		}
		c.AIService.MaxRetries = n
	}
	if v := strings.TrimSpace(os.Getenv("AUTH_RATE_LIMIT")); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_LIMIT: %w", err)
		}
		c.RateLimit.RPS = rps
	}
	if v := strings.TrimSpace(os.Getenv("AUTH_RATE_BURST")); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_BURST: %w", err)
		}
		c.RateLimit.Burst = burst
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
