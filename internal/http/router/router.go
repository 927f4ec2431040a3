package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/straye-as/erp-desk/internal/auth"
	"github.com/straye-as/erp-desk/internal/config"
	"github.com/straye-as/erp-desk/internal/http/handler"
	"github.com/straye-as/erp-desk/internal/http/middleware"
	"github.com/straye-as/erp-desk/internal/metrics"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Health        *handler.HealthHandler
	Inquiry       *handler.InquiryHandler
	PurchaseOrder *handler.PurchaseOrderHandler
	User          *handler.UserHandler
	Dashboard     *handler.DashboardHandler
	Draft         *handler.DraftHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	metrics        *metrics.Metrics
	handlers       Handlers
}

// NewRouter creates the router. m may be nil when metrics are disabled.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	m *metrics.Metrics,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		metrics:        m,
		handlers:       handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}
	if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}

	r.Get("/health", rt.handlers.Health.Live)
	r.Get("/health/ready", rt.handlers.Health.Ready)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	// Destructive record operations need an administrator once sign-in is enforced
	adminOnly := func(h http.HandlerFunc) http.Handler {
		if !rt.cfg.Auth.Enabled {
			return h
		}
		return rt.authMiddleware.RequireAdmin(h)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)

		r.Get("/me", rt.handlers.User.Me)
		r.Get("/enums", rt.handlers.Dashboard.Enums)
		r.Get("/dashboard/summary", rt.handlers.Dashboard.Summary)

		r.Route("/inquiries", func(r chi.Router) {
			r.Get("/", rt.handlers.Inquiry.List)
			r.Get("/export", rt.handlers.Inquiry.Export)
			r.Get("/{id}", rt.handlers.Inquiry.GetByID)
			r.Method(http.MethodDelete, "/{id}", adminOnly(rt.handlers.Inquiry.Delete))
			r.Get("/{id}/interactions", rt.handlers.Inquiry.ListInteractions)
			r.Post("/{id}/interactions", rt.handlers.Inquiry.AddInteraction)
		})
		r.Delete("/interactions/{id}", rt.handlers.Inquiry.DeleteInteraction)

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Get("/", rt.handlers.PurchaseOrder.List)
			r.Get("/export", rt.handlers.PurchaseOrder.Export)
			r.Get("/{id}", rt.handlers.PurchaseOrder.GetByID)
			r.Method(http.MethodDelete, "/{id}", adminOnly(rt.handlers.PurchaseOrder.Delete))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", rt.handlers.User.List)
			r.Get("/{id}", rt.handlers.User.GetByID)
		})

		r.Route("/drafts/{entity}", func(r chi.Router) {
			r.Get("/", rt.handlers.Draft.List)
			r.Post("/", rt.handlers.Draft.Create)
			r.Post("/edit/{recordId}", rt.handlers.Draft.OpenEdit)
			r.Get("/{draftId}", rt.handlers.Draft.Get)
			r.Patch("/{draftId}", rt.handlers.Draft.Patch)
			r.Delete("/{draftId}", rt.handlers.Draft.Cancel)
			r.Post("/{draftId}/submit", rt.handlers.Draft.Submit)
		})
	})

	return r
}
