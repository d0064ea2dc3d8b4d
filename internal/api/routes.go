package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"product-transparency/backend/internal/ai"
	"product-transparency/backend/internal/auth"
	"product-transparency/backend/internal/report"
	"product-transparency/backend/internal/scoring"
	"product-transparency/backend/internal/store"
)

// ProductStore is the persistence capability the handlers rely on.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *store.Product) error
	GetProduct(ctx context.Context, id string) (*store.Product, error)
	ListProducts(ctx context.Context, q store.ProductQuery) ([]store.Product, int64, error)
	UpdateProduct(ctx context.Context, id string, patch store.ProductPatch) (*store.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// pinger is implemented by stores that can report their health.
type pinger interface {
	Ping(ctx context.Context) error
}

// Config defines server dependencies.
type Config struct {
	Store          ProductStore
	Questions      ai.QuestionGenerator
	Scorer         ai.Scorer
	Fallback       *scoring.FallbackPolicy
	Issuer         *auth.Issuer
	Verifier       auth.CredentialVerifier
	AllowedOrigins []string
	MaxBodyBytes   int64
	AuthRateLimit  rate.Limit
	AuthRateBurst  int
}

// Server wires HTTP handlers with persistence, scoring and auth.
type Server struct {
	store          ProductStore
	questions      ai.QuestionGenerator
	reports        *report.Generator
	issuer         *auth.Issuer
	verifier       auth.CredentialVerifier
	allowedOrigins []string
	maxBodyBytes   int64
	authLimiter    *ipRateLimiter
	notifier       *ProductNotifier
}

const defaultMaxBodyBytes = 10 << 20

// NewServer constructs the API server. Scorer and Questions are wrapped so
// collaborator failures degrade instead of failing requests; a nil Fallback
// means scoring.DefaultFallback.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("product store required")
	}
	if cfg.Issuer == nil {
		return nil, errors.New("token issuer required")
	}
	verifier := cfg.Verifier
	if verifier == nil {
		verifier = auth.AcceptAll{}
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	fallback := scoring.DefaultFallback()
	if cfg.Fallback != nil {
		if err := cfg.Fallback.Validate(); err != nil {
			return nil, fmt.Errorf("fallback policy: %w", err)
		}
		fallback = *cfg.Fallback
	}
	limit, burst := cfg.AuthRateLimit, cfg.AuthRateBurst
	if limit <= 0 {
		limit = rate.Limit(5)
	}
	if burst <= 0 {
		burst = 10
	}

	return &Server{
		store:          cfg.Store,
		questions:      ai.WithEmptyQuestions(cfg.Questions),
		reports:        report.NewGenerator(cfg.Store, ai.WithFallback(cfg.Scorer, fallback)),
		issuer:         cfg.Issuer,
		verifier:       verifier,
		allowedOrigins: cfg.AllowedOrigins,
		maxBodyBytes:   maxBody,
		authLimiter:    newIPRateLimiter(limit, burst),
		notifier:       NewProductNotifier(),
	}, nil
}

// Notifier exposes the product event feed.
func (s *Server) Notifier() *ProductNotifier {
	return s.notifier
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.New()
	r.Use(requestLogger(), gin.CustomRecovery(recoverToJSON), errorRenderer())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 || containsWildcard(s.allowedOrigins) {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.ExposeHeaders = []string{"Content-Disposition"}
	if err := corsCfg.Validate(); err != nil {
		return nil, fmt.Errorf("cors config: %w", err)
	}
	r.Use(cors.New(corsCfg))
	r.Use(limitBody(s.maxBodyBytes))

	r.NoRoute(func(c *gin.Context) {
		renderStatus(c, http.StatusNotFound, "Not Found")
	})

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth", s.authLimiter.middleware())
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/refresh", s.handleRefresh)

		api.POST("/products", s.handleCreateProduct)
		api.GET("/products", s.handleListProducts)
		api.GET("/products/:id", s.handleGetProduct)
		api.PUT("/products/:id", s.handleUpdateProduct)
		api.DELETE("/products/:id", s.handleDeleteProduct)

		api.GET("/reports/:productId", s.handleReport)
		api.GET("/reports/:productId/pdf", s.handleReportPDF)

		api.GET("/questions", s.handleQuestions)
		api.GET("/stream/products", s.handleProductStream)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	if p, ok := s.store.(pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "message": "Database unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Product Transparency API is running"})
}

// renderError writes the flat {error: message} body used for expected
// client-side failures.
func (s *Server) renderError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}
