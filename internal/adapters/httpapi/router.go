package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/eyalcha/kan-program/internal/app"
	"github.com/eyalcha/kan-program/internal/ports"
)

type Server struct {
	logger   zerolog.Logger
	stations *app.RefreshService
	// bus est optionnel: sans bus, /events n'émet que le heartbeat.
	bus ports.EventBus
}

func NewServer(logger zerolog.Logger, stations *app.RefreshService, bus ports.EventBus) *Server {
	return &Server{logger: logger, stations: stations, bus: bus}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// SSE: pas de timeout de requête.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultRequestTimeout))
			r.Get("/health", s.handleHealth)
			r.Get("/version", s.handleVersion)
			r.Get("/openapi.json", s.handleOpenAPI)

			if s.stations != nil {
				NewStationsHandler(s.stations).Routes(r)
			}
		})
	})

	return r
}
