package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"edu-task-portal/internal/config"
	"edu-task-portal/internal/guard"
	"edu-task-portal/internal/handler"
	"edu-task-portal/internal/middleware"
)

// proxyIdleTimeout cancels a proxied call that has produced no bytes for this long.
const proxyIdleTimeout = 30 * time.Second

type Handlers struct {
	Session  *handler.SessionHandler
	Pages    *handler.PageHandler
	Navigate *handler.NavigateHandler
	Proxy    *handler.ProxyHandler
	Docs     *handler.DocsHandler
}

func New(
	cfg *config.Config,
	routes *guard.Table,
	navigation *middleware.NavigationMiddleware,
	h Handlers,
	ws http.Handler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.SessionRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if h.Docs != nil {
		r.Get("/openapi.yaml", h.Docs.OpenAPI)
		r.Get("/docs", h.Docs.SwaggerUI)
	}

	if ws != nil {
		r.Handle("/ws", ws)
	}

	r.Route("/session", func(s chi.Router) {
		s.Use(middleware.Timeout(cfg.RequestTimeout))

		s.Get("/", h.Session.Current)
		s.Post("/login", h.Session.Login)
		s.Post("/register/{role}", h.Session.Register)
		s.Post("/logout", h.Session.Logout)
		s.Post("/refresh", h.Session.Refresh)
		s.Get("/navigate", h.Navigate.Check)
		s.Get("/routes", h.Pages.Routes)
	})

	// Uploads and slow backend endpoints stream through without the
	// buffering TimeoutHandler would add.
	r.With(middleware.StreamingTimeout(cfg.APITimeout, proxyIdleTimeout)).Handle("/api/*", http.HandlerFunc(h.Proxy.Forward))

	for _, route := range routes.Routes() {
		r.With(middleware.Timeout(cfg.RequestTimeout), navigation.Guard(route)).Get(route.Path, h.Pages.Serve)
	}

	return r
}
