// Package server exposes sitekit over HTTP: search and outline tracking
// (plain and live over websockets), repository cards, code embeds and the
// theme preference.
package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/sitekit/sitekit/internal/app"
)

// maxPageSize bounds a rendered page posted to /api/outline
const maxPageSize = 4 << 20

// Server is the HTTP API over an App
type Server struct {
	app        *app.App
	router     chi.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader
	origins    []string
}

// New creates a server; routes are built immediately
func New(a *app.App) *Server {
	s := &Server{app: a, origins: a.Config.Server.AllowedOrigins}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.router = s.buildRouter()
	return s
}

// checkOrigin admits websocket upgrades from the same origins CORS allows.
// Requests without an Origin header are not from a browser and pass.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.origins {
		if originMatches(allowed, origin) {
			return true
		}
	}
	return false
}

// originMatches compares case-insensitively; one "*" in allowed matches any run
func originMatches(allowed, origin string) bool {
	allowed, origin = strings.ToLower(allowed), strings.ToLower(origin)
	if allowed == "*" || allowed == origin {
		return true
	}
	prefix, suffix, ok := strings.Cut(allowed, "*")
	return ok && len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix)
}

// buildRouter creates and configures the chi router with all routes
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Websockets must stay outside the timeout middleware
		r.Get("/search/ws", s.handleSearchSocket)
		r.Get("/outline/ws", s.handleOutlineSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/search", s.handleSearch)
			r.Get("/repo/{owner}/{repo}", s.handleRepo)
			r.Get("/embed", s.handleEmbed)
			r.Post("/outline", s.handleOutline)
			r.Get("/theme", s.handleTheme)
			r.Post("/theme/toggle", s.handleThemeToggle)
		})
	})

	return r
}

// Handler returns the router
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on addr until Shutdown
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("✓ sitekit API listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
