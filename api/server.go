/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request scoped zerolog logger carrying request_id
  3. AccessLog:  One line per request (method, path, status, elapsed, bytes)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for a local frontend

ROUTE GROUPS:
  /api/reports          Daily reports for a period
  /api/events           Raw punch events for a period
  /api/days/{date}/*    Punch, edit and delete commands
  /api/export           CSV/JSON/XLSX downloads
  /api/log              Audit log
  /api/scenarios/*      Demo datasets
  /api/config           Effective engine rules
  /*                    Static files (frontend), when present

SECURITY NOTE:
  No authentication. The ledger is meant to run on localhost for one user.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Logging middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/worklog/logger"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	Logger      logger.Logger
	CORSOrigins []string
	// StaticDir is served for non-API paths when it exists.
	StaticDir string
	// SlowRequest marks requests at or above it as warn in the access log.
	SlowRequest time.Duration
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opt RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(opt.Logger))
	r.Use(AccessLog(AccessLogOptions{Slow: opt.SlowRequest}))
	r.Use(middleware.Recoverer)
	if len(opt.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opt.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
		}))
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/reports", h.ListReports)
		r.Get("/events", h.ListEvents)

		// Day commands
		r.Route("/days/{date}", func(r chi.Router) {
			r.Get("/", h.GetDay)
			r.Delete("/", h.DeleteDay)
			r.Post("/punches", h.AddPunch)
			r.Put("/lunch", h.SetLunch)
			r.Put("/pairs/{pair}", h.EditPair)
			r.Put("/pairs/{pair}/work-gap", h.SetWorkGap)
			r.Delete("/pairs/{pair}", h.DeletePair)
		})

		r.Get("/export", h.Export)
		r.Get("/log", h.ListAudit)
		r.Get("/config", h.GetConfig)
		r.Post("/recompute", h.Recompute)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	if opt.StaticDir != "" {
		mountStatic(r, opt.StaticDir)
	}
	return r
}

// mountStatic serves dir and falls back to index.html for client-side routing.
func mountStatic(r chi.Router, dir string) {
	if _, err := os.Stat(dir); err != nil {
		return
	}
	fileServer := http.FileServer(http.Dir(dir))
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		fullPath := filepath.Join(dir, filepath.Clean(req.URL.Path))
		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			http.ServeFile(w, req, filepath.Join(dir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, req)
	})
}
