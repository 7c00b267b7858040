// Package api serves the HTTP status and console API.
package api

import (
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nwtnni/mc-suite/internal/auth"
	"github.com/nwtnni/mc-suite/internal/dispatch"
)

type Options struct {
	Queue    dispatch.Sender
	Verifier *auth.Verifier
	// History is optional; without it /history answers 404.
	History History
	// Console is optional; without it there is no /console, /say or
	// /shutdown, which only make sense next to a running server.
	Console        Lines
	AllowedOrigins []string
	Logger         *log.Logger
}

func NewRouter(opts Options) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	h := NewHandler(opts.Queue, opts.History, logger)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(requestLogger{log: logger}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(opts.Verifier))

		r.Get("/status", h.Status)
		r.Get("/history", h.History)

		if opts.Console != nil {
			r.Post("/say", h.Say)
			r.Post("/shutdown", h.Shutdown)
			// WebSocket (auth via query param)
			r.Get("/console", h.Console(opts.Console))
		}
	})

	return r
}
