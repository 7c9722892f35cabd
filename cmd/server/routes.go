package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"azadi/internal/admin"
	"azadi/internal/automation"
	automationhandler "azadi/internal/automation/handler"
	contenthandler "azadi/internal/content/handler"
	"azadi/internal/content/service"
	"azadi/internal/content/settings"
	"azadi/internal/content/store"
	"azadi/internal/docstore"
	jwttoken "azadi/internal/jwt_token"
	"azadi/internal/platform/config"
	"azadi/internal/platform/metrics"
	ratelimitmw "azadi/internal/ratelimit/middleware"
	ratelimitmodels "azadi/internal/ratelimit/models"
	"azadi/pkg/platform/httputil"
	adminmw "azadi/pkg/platform/middleware/admin"
	authmw "azadi/pkg/platform/middleware/auth"
	"azadi/pkg/platform/middleware/metadata"
	request "azadi/pkg/platform/middleware/request"
	"azadi/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	cfg       config.Config
	log       *slog.Logger
	repos     *store.Repositories
	settings  *settings.Service
	donations *service.DonationService
	dashboard *service.DashboardService
	admin     *admin.Service
	limits    *ratelimitmw.Middleware
	tokens    *jwttoken.JWTService
	engine    *automation.Engine
	store     docstore.Client
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(d.log))
	r.Use(metrics.New().Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"status":   "ok",
			"docstore": string(d.store.Driver()),
		})
	})
	r.With(adminmw.RequireAdminToken(d.cfg.Server.MetricsToken, d.log)).Handle("/metrics", promhttp.Handler())

	content := contenthandler.New(d.repos, d.settings, d.donations, d.dashboard, d.log)
	auth := admin.NewHandler(d.admin, d.log)
	maintenance := automationhandler.New(d.engine, d.log)

	r.Route("/api", func(r chi.Router) {
		content.RegisterPublic(r, d.limits.RateLimit(ratelimitmodels.ClassPublicWrite))

		r.Route("/admin", func(r chi.Router) {
			auth.RegisterPublic(r, d.limits.RateLimit(ratelimitmodels.ClassAuth))
			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(d.tokens), d.log))
				auth.RegisterAdmin(r)
				r.Route("/automation", maintenance.Register)
				content.RegisterAdmin(r)
			})
		})
	})
	return r
}
