package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"product-transparency/backend/internal/ai"
	"product-transparency/backend/internal/api"
	"product-transparency/backend/internal/auth"
	"product-transparency/backend/internal/config"
	"product-transparency/backend/internal/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("load .env")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	configureLogging(cfg.Log)
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := store.Open(cfg.DBPath, logrus.GetLevel() < logrus.DebugLevel)
	if err != nil {
		logrus.Fatalf("open database: %v", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("close database")
		}
	}()

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logrus.Fatalf("token issuer: %v", err)
	}

	serverCfg := api.Config{
		Store:          db,
		Issuer:         issuer,
		Fallback:       &cfg.Fallback,
		AllowedOrigins: cfg.CORSOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		AuthRateLimit:  rate.Limit(cfg.RateLimit.RPS),
		AuthRateBurst:  cfg.RateLimit.Burst,
	}

	client, err := ai.NewClient(ai.Config{
		BaseURL:         cfg.AIService.BaseURL,
		QuestionTimeout: cfg.AIService.QuestionTimeout,
		ScoreTimeout:    cfg.AIService.ScoreTimeout,
		MaxRetries:      cfg.AIService.MaxRetries,
		InitialBackoff:  cfg.AIService.InitialBackoff,
	})
	switch {
	case errors.Is(err, ai.ErrDisabled):
		logrus.Warn("AI service url not set; follow-up questions are empty and reports use the fallback score")
	case err != nil:
		logrus.Fatalf("ai client: %v", err)
	default:
		serverCfg.Questions = client
		serverCfg.Scorer = client
	}

	server, err := api.NewServer(serverCfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":       cfg.Port,
			"env":        cfg.Env,
			"ai_service": cfg.AIService.BaseURL,
		}).Info("starting product transparency API")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server exited: %v", err)
		}
	case <-ctx.Done():
		logrus.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("graceful shutdown")
		}
	}
}

func configureLogging(cfg config.LogConfig) {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		logrus.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
