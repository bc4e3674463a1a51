package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Vodeneev/footstats/internal/pkg/config"
)

// RouteRegistrar mounts extra routes at the root, e.g. the scanner controls.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// NewRouter wires middleware and every endpoint of the service.
func NewRouter(h *Handler, cfg config.ServerConfig, extra ...RouteRegistrar) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", h.Ping)
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Teams
		r.Get("/teams/{teamID}/stats", h.GetTeamStats)
		r.Get("/teams/{teamID}/next-match-below", h.GetNextMatchBelow)
		r.Get("/teams/{teamID}/compare/{opponentID}", h.CompareTeams)

		r.Post("/search", h.SearchTeams)
		r.Post("/ai/team-analysis", h.TeamAnalysis)

		r.Get("/update/fixtures", h.UpdateFixtures)
		r.Post("/update/fixtures", h.UpdateFixtures)
	})

	for _, e := range extra {
		if e != nil {
			e.RegisterRoutes(r)
		}
	}
	return r
}

// requestLogger logs one line per request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}
