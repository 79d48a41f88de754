package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/havenmind/counselor-platform/internal/counselor"
	httpmiddleware "github.com/havenmind/counselor-platform/internal/http/middleware"
	"github.com/havenmind/counselor-platform/internal/intake"
	"github.com/havenmind/counselor-platform/internal/review"
	"github.com/havenmind/counselor-platform/internal/risk"
	"github.com/havenmind/counselor-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	ReviewHandler    *review.Handler
	RiskHandler      *risk.Handler
	CounselorHandler *counselor.Handler
	IntakeHandler    *intake.Handler
	MetricsHandler   http.Handler

	SessionSecret      string
	CORSAllowedOrigins []string

	// Per-IP limit on the public intake route; 0 disables it.
	IntakeRateLimit float64
	IntakeRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health, metrics, tenant-scoped intake)
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.IntakeHandler != nil {
			public.Route("/messages", func(r chi.Router) {
				r.Use(requireOrgID)
				if cfg.IntakeRateLimit > 0 {
					r.Use(httpmiddleware.RateLimit(cfg.IntakeRateLimit, cfg.IntakeRateBurst))
				}
				r.Post("/assess", cfg.IntakeHandler.AssessMessage)
			})
		}
	})

	// Counselor surface (session required)
	r.Route("/review", func(rv chi.Router) {
		rv.Use(httpmiddleware.SessionAuth(cfg.SessionSecret))
		rv.Get("/queue", cfg.ReviewHandler.Queue)
		rv.Get("/organization-queue", cfg.ReviewHandler.OrgQueue)
		rv.Get("/performance", cfg.ReviewHandler.Performance)
		rv.Post("/{id}/approve", cfg.ReviewHandler.Approve)
		rv.Post("/{id}/modify", cfg.ReviewHandler.Modify)
		rv.Post("/{id}/reject", cfg.ReviewHandler.Reject)
		rv.Post("/{id}/escalate", cfg.ReviewHandler.Escalate)
	})

	// Risk monitoring (session required)
	if cfg.RiskHandler != nil {
		r.Route("/risk", func(rk chi.Router) {
			rk.Use(httpmiddleware.SessionAuth(cfg.SessionSecret))
			rk.Get("/risk-assessments", cfg.RiskHandler.ListAssessments)
			rk.Get("/high-risk-conversations", cfg.RiskHandler.HighRiskConversations)
		})
	}

	// Admin surface
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.SessionAuth(cfg.SessionSecret))
		admin.Use(httpmiddleware.RequireAdmin)
		if cfg.CounselorHandler != nil {
			admin.Get("/counselors", cfg.CounselorHandler.ListCounselors)
			admin.Patch("/counselors/{counselorID}/availability", cfg.CounselorHandler.SetAvailability)
		}
		admin.Post("/auto-approve-expired", cfg.ReviewHandler.AutoApproveExpired)
	})

	return r
}
