package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/mwhitfield/clientpulse/internal/api/middleware"
	"github.com/mwhitfield/clientpulse/internal/api/response"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc
	LoginHandler  http.HandlerFunc

	RecordEventHandler    http.HandlerFunc
	LeadWebhookHandler    http.HandlerFunc
	BillingWebhookHandler http.HandlerFunc

	StatsHandler       http.HandlerFunc
	ExportStatsHandler http.HandlerFunc
	ActivityHandler    http.HandlerFunc
	ListLeadsHandler   http.HandlerFunc
	SnapshotHandler    http.HandlerFunc

	ListBrandFilesHandler  http.HandlerFunc
	CreateBrandFileHandler http.HandlerFunc

	CreateTenantHandler http.HandlerFunc
	DeleteTenantHandler http.HandlerFunc
	RunRollupHandler    http.HandlerFunc
	CreateKeyHandler    http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public routes
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Post("/api/v1/auth/login", orNotImplemented(deps.LoginHandler))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/events", orNotImplemented(deps.RecordEventHandler))
		r.Post("/api/v1/webhooks/leads", orNotImplemented(deps.LeadWebhookHandler))
		r.Post("/api/v1/webhooks/billing", orNotImplemented(deps.BillingWebhookHandler))

		r.Get("/api/v1/stats", orNotImplemented(deps.StatsHandler))
		r.Get("/api/v1/stats/export", orNotImplemented(deps.ExportStatsHandler))
		r.Get("/api/v1/activity", orNotImplemented(deps.ActivityHandler))
		r.Get("/api/v1/leads", orNotImplemented(deps.ListLeadsHandler))
		r.Get("/api/v1/snapshots/{source}", orNotImplemented(deps.SnapshotHandler))

		r.Get("/api/v1/brand-files", orNotImplemented(deps.ListBrandFilesHandler))
		r.Post("/api/v1/brand-files", orNotImplemented(deps.CreateBrandFileHandler))

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireAdmin)

			r.Post("/api/v1/admin/tenants", orNotImplemented(deps.CreateTenantHandler))
			r.Delete("/api/v1/admin/tenants/{tenantID}", orNotImplemented(deps.DeleteTenantHandler))
			r.Post("/api/v1/admin/rollup/run", orNotImplemented(deps.RunRollupHandler))
			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
