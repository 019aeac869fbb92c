package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GuideRefreshes compte les refresh par station et résultat ("ok" ou type d'erreur).
	GuideRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kan_guide_refresh_total",
		Help: "Total number of program guide refreshes",
	}, []string{"station", "result"})

	GuideRefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kan_guide_refresh_duration_seconds",
		Help:    "Duration of program guide fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"station"})

	GuideLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kan_guide_last_success_timestamp_seconds",
		Help: "Unix time of the last successful guide refresh",
	}, []string{"station"})

	GuideEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kan_guide_entries",
		Help: "Number of program entries in the live guide payload",
	}, []string{"station"})

	// GuideAvailable vaut 1 si le dernier refresh a réussi.
	GuideAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kan_guide_available",
		Help: "Whether the last guide refresh succeeded (1) or not (0)",
	}, []string{"station"})
)

// ObserveRefresh enregistre le résultat d'une tentative de refresh.
func ObserveRefresh(station, result string, took time.Duration, entries int) {
	GuideRefreshes.WithLabelValues(station, result).Inc()
	GuideRefreshDuration.WithLabelValues(station).Observe(took.Seconds())
	if result == "ok" {
		GuideLastSuccess.WithLabelValues(station).SetToCurrentTime()
		GuideEntries.WithLabelValues(station).Set(float64(entries))
		GuideAvailable.WithLabelValues(station).Set(1)
		return
	}
	GuideAvailable.WithLabelValues(station).Set(0)
}
