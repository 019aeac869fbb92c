package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eyalcha/kan-program/internal/app"
	"github.com/eyalcha/kan-program/internal/httpjson"
)

const (
	codeStationNotFound = "station_not_found"
	codeInternal        = "internal"
)

type StationsHandler struct {
	stations *app.RefreshService
}

func NewStationsHandler(stations *app.RefreshService) *StationsHandler {
	return &StationsHandler{stations: stations}
}

func (h *StationsHandler) Routes(r chi.Router) {
	r.Route("/stations", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{stationID}", h.get)
		r.Post("/{stationID}/refresh", h.refresh)
	})
	r.Post("/services/"+app.ServiceRefresh, h.refreshAll)
}

type refreshFailureDTO struct {
	Error  string       `json:"error"`
	Code   string       `json:"code,omitempty"`
	Sensor app.Snapshot `json:"sensor"`
}

type refreshResultDTO struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

type serviceResultDTO struct {
	Service string                      `json:"service"`
	Results map[string]refreshResultDTO `json:"results"`
}

func (h *StationsHandler) list(w http.ResponseWriter, r *http.Request) {
	sensors := h.stations.Sensors()
	out := make([]app.Snapshot, 0, len(sensors))
	for _, s := range sensors {
		out = append(out, s.Snapshot())
	}
	httpjson.Write(w, http.StatusOK, out)
}

func (h *StationsHandler) sensor(w http.ResponseWriter, r *http.Request) (*app.Sensor, bool) {
	sensor, err := h.stations.Sensor(chi.URLParam(r, "stationID"))
	if err != nil {
		if errors.Is(err, app.ErrStationNotFound) {
			httpjson.WriteErrorCode(w, http.StatusNotFound, codeStationNotFound, "station not found")
			return nil, false
		}
		httpjson.WriteErrorCode(w, http.StatusInternalServerError, codeInternal, err.Error())
		return nil, false
	}
	return sensor, true
}

func (h *StationsHandler) get(w http.ResponseWriter, r *http.Request) {
	sensor, ok := h.sensor(w, r)
	if !ok {
		return
	}
	httpjson.Write(w, http.StatusOK, sensor.Snapshot())
}

func (h *StationsHandler) refresh(w http.ResponseWriter, r *http.Request) {
	sensor, ok := h.sensor(w, r)
	if !ok {
		return
	}
	if err := sensor.RequestRefresh(r.Context()); err != nil {
		// Le capteur reste lisible: on renvoie la dernière vue avec l'erreur.
		httpjson.Write(w, http.StatusBadGateway, refreshFailureDTO{
			Error:  err.Error(),
			Code:   string(app.FetchErrorKindOf(err)),
			Sensor: sensor.Snapshot(),
		})
		return
	}
	httpjson.Write(w, http.StatusOK, sensor.Snapshot())
}

func (h *StationsHandler) refreshAll(w http.ResponseWriter, r *http.Request) {
	res := h.stations.RefreshAll(r.Context())
	out := serviceResultDTO{Service: app.ServiceRefresh, Results: make(map[string]refreshResultDTO, len(res))}
	for id, err := range res {
		if err != nil {
			out.Results[id] = refreshResultDTO{Code: string(app.FetchErrorKindOf(err)), Error: err.Error()}
			continue
		}
		out.Results[id] = refreshResultDTO{OK: true}
	}
	httpjson.Write(w, http.StatusOK, out)
}
