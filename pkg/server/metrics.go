package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slaskgallery_http_request_duration_seconds",
		Help:    "Duration of listing api requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler", "code"})
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slaskgallery_sessions",
		Help: "The number of listing sessions held in memory",
	})
)

func instrument(name string, h http.HandlerFunc) http.Handler {
	return promhttp.InstrumentHandlerDuration(requestDuration.MustCurryWith(prometheus.Labels{"handler": name}), h)
}
