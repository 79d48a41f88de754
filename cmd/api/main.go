package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/havenmind/counselor-platform/internal/api/router"
	appconfig "github.com/havenmind/counselor-platform/internal/config"
	"github.com/havenmind/counselor-platform/internal/counselor"
	"github.com/havenmind/counselor-platform/internal/intake"
	"github.com/havenmind/counselor-platform/internal/llm"
	"github.com/havenmind/counselor-platform/internal/notify"
	"github.com/havenmind/counselor-platform/internal/observability/metrics"
	"github.com/havenmind/counselor-platform/internal/review"
	"github.com/havenmind/counselor-platform/internal/risk"
	"github.com/havenmind/counselor-platform/internal/tenancy"
	"github.com/havenmind/counselor-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting counselor-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	sqlDB := stdlib.OpenDBFromPool(pool)

	// Risk classifier: Gemini when configured, keyword fallback otherwise.
	// A secondary model backs the primary so a single model outage does not
	// push every assessment onto the keyword matcher.
	var llmClient llm.Client
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.RiskModelID)
		if err != nil {
			logger.Error("failed to create Gemini client", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		llmClient = gemini

		if cfg.RiskFallbackModelID != "" && cfg.RiskFallbackModelID != cfg.RiskModelID {
			secondary, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.RiskFallbackModelID)
			if err != nil {
				logger.Error("failed to create fallback Gemini client", "error", err)
				os.Exit(1)
			}
			defer secondary.Close()
			llmClient = llm.NewFallbackClient(gemini, secondary, logger)
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, classifier will use keyword fallback only")
	}
	classifier := risk.NewClassifier(llmClient, cfg.RiskAssessTimeout, logger)

	reviewMetrics := metrics.NewReviewMetrics(nil)

	// Escalation notices go out via SendGrid when configured.
	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}
	orgDirectory := tenancy.NewDirectory(pool)
	notifier := notify.NewEscalationNotifier(emailSender, orgDirectory, logger)

	engine := review.NewEngine(pool, logger, reviewMetrics, notifier)
	assessmentStore := risk.NewStore(sqlDB)
	counselorRepo := counselor.NewRepository(pool)

	intakeService := intake.NewService(classifier, assessmentStore, engine, counselorRepo, nil, reviewMetrics, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		ReviewHandler:      review.NewHandler(engine, cfg.ReviewTTL, logger),
		RiskHandler:        risk.NewHandler(assessmentStore, logger),
		CounselorHandler:   counselor.NewHandler(counselorRepo, logger),
		IntakeHandler:      intake.NewHandler(intakeService, logger),
		MetricsHandler:     promhttp.Handler(),
		SessionSecret:      cfg.SessionSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		IntakeRateLimit:    cfg.IntakeRateLimit,
		IntakeRateBurst:    cfg.IntakeRateBurst,
	}
	r := router.New(routerCfg)

	sweeper := review.NewSweeper(engine, cfg.ReviewTTL, cfg.SweepInterval, logger)
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
