package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockroom-app/stockroom/internal/catalog"
	"github.com/stockroom-app/stockroom/internal/ledger"
	"github.com/stockroom-app/stockroom/internal/observability"
	"github.com/stockroom-app/stockroom/internal/teams"
	"github.com/stockroom-app/stockroom/internal/webhooks"
	"github.com/stockroom-app/stockroom/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	LedgerHandler   *ledger.Handler
	TeamsHandler    *teams.Handler
	CatalogHandler  *catalog.Handler
	WebhooksHandler *webhooks.Handler
	TeamsMiddleware teams.Middleware
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router for the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/transaction-types", params.LedgerHandler.HandleTransactionTypes)

		r.Route("/teams", func(r chi.Router) {
			params.TeamsHandler.MountRoutes(r)

			r.Route("/{teamID}", func(r chi.Router) {
				gate := params.TeamsMiddleware

				r.Group(func(r chi.Router) {
					r.Use(gate.RequireRole(teams.RoleViewer))
					params.TeamsHandler.MountTeamRoutes(r)
					params.LedgerHandler.MountRoutes(r)
					params.CatalogHandler.MountReadRoutes(r)
				})

				r.Group(func(r chi.Router) {
					r.Use(gate.RequireRole(teams.RoleEditor))
					params.LedgerHandler.MountWriteRoutes(r)
					params.CatalogHandler.MountWriteRoutes(r)
				})

				r.Group(func(r chi.Router) {
					r.Use(gate.RequireRole(teams.RoleAdmin))
					params.TeamsHandler.MountAdminRoutes(r)
					r.Route("/webhooks", params.WebhooksHandler.MountRoutes)
				})

				r.Group(func(r chi.Router) {
					r.Use(gate.RequireRole(teams.RoleOwner))
					params.TeamsHandler.MountOwnerRoutes(r)
				})
			})
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
