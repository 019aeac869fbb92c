package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/eyalcha/kan-program/internal/buildinfo"
	"github.com/eyalcha/kan-program/internal/httpjson"
)

const defaultRequestTimeout = 30 * time.Second

type healthDTO struct {
	Status    string `json:"status"`
	Stations  int    `json:"stations"`
	Available int    `json:"available"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := healthDTO{Status: "ok"}
	if s.stations != nil {
		for _, sensor := range s.stations.Sensors() {
			out.Stations++
			if sensor.Available() {
				out.Available++
			}
		}
	}
	httpjson.Write(w, http.StatusOK, out)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, buildinfo.Current())
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}
