// Package http wires the HTTP route tree: health probes plus the
// authenticated analysis/comparison/report API under /api/v1.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/internal/interfaces/http/handlers"
	"github.com/turtacn/tender-intel/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	AnalysisHandler   *handlers.AnalysisHandler
	ComparisonHandler *handlers.ComparisonHandler
	ReportHandler     *handlers.ReportHandler
	HealthHandler     *handlers.HealthHandler

	// Middleware. Auth and CORS are struct-backed (they hold configuration
	// and validators); Logging, RateLimit, and Tenant are plain middleware
	// constructors, so the caller supplies the already-built chain.
	AuthMiddleware      *middleware.AuthMiddleware
	CORSMiddleware      *middleware.CORSMiddleware
	LoggingMiddleware   func(http.Handler) http.Handler
	RateLimitMiddleware func(http.Handler) http.Handler
	TenantMiddleware    func(http.Handler) http.Handler

	// Infrastructure
	Logger logging.Logger
}

// NewRouter constructs the complete HTTP route tree from the given
// configuration. It wires global middleware, public health endpoints, and
// authenticated API v1 resource groups into a single http.Handler suitable
// for use with http.Server.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORSMiddleware != nil {
		r.Use(cfg.CORSMiddleware.Handler)
	}
	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware)
	}
	if cfg.RateLimitMiddleware != nil {
		r.Use(cfg.RateLimitMiddleware)
	}

	// --- Public health endpoints (no auth) ---
	r.Group(func(pub chi.Router) {
		if cfg.HealthHandler != nil {
			pub.Get("/healthz", cfg.HealthHandler.Liveness)
			pub.Get("/readyz", cfg.HealthHandler.Readiness)
			pub.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		}
	})

	// --- API v1 (authenticated + tenant-scoped) ---
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.Authenticate())
		}
		if cfg.TenantMiddleware != nil {
			api.Use(cfg.TenantMiddleware)
		}

		registerAnalysisRoutes(api, cfg.AnalysisHandler)
		registerComparisonRoutes(api, cfg.ComparisonHandler)
		registerReportRoutes(api, cfg.ReportHandler)
	})

	return r
}

// registerAnalysisRoutes mounts document ingest and run-status endpoints
// under /analysis.
func registerAnalysisRoutes(r chi.Router, h *handlers.AnalysisHandler) {
	if h == nil {
		return
	}
	r.Route("/analysis", func(ar chi.Router) {
		ar.Post("/upload", h.Upload)
		ar.Get("/status/{runID}", h.GetStatus)
		ar.Get("/{docID}", h.GetArtifact)
	})
}

// registerComparisonRoutes mounts multi-document comparison endpoints under
// /comparison.
func registerComparisonRoutes(r chi.Router, h *handlers.ComparisonHandler) {
	if h == nil {
		return
	}
	r.Route("/comparison", func(cr chi.Router) {
		cr.Post("/upload-multiple", h.UploadMultiple)
		cr.Get("/{comparisonID}", h.GetComparison)
	})
}

// registerReportRoutes mounts report-assembly endpoints under /reports.
func registerReportRoutes(r chi.Router, h *handlers.ReportHandler) {
	if h == nil {
		return
	}
	r.Route("/reports", func(rr chi.Router) {
		rr.Post("/runs/{runID}", h.ForRun)
		rr.Post("/comparisons/{comparisonID}", h.ForComparison)
	})
}
