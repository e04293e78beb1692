package main

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics regroupe les métriques Prometheus du service.
type Metrics struct {
	// lcaCalculations compte les calculs ACV. Labels: estimation (true, false)
	lcaCalculations *prometheus.CounterVec
	// estimatorFallbacks compte les replis sur les valeurs par défaut.
	// Labels: reason (estimator_unavailable, estimator_failed, zero_unknown_mass)
	estimatorFallbacks *prometheus.CounterVec
	// scores compte les notes attribuées. Labels: grade, model
	scores *prometheus.CounterVec
	// requestDuration mesure la latence HTTP. Labels: route, status
	requestDuration *prometheus.HistogramVec
}

// NewMetrics enregistre les métriques dans reg (prometheus.DefaultRegisterer en production).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		lcaCalculations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecolabel",
			Subsystem: "lca",
			Name:      "calculations_total",
			Help:      "Total LCA calculations",
		}, []string{"estimation"}),
		estimatorFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecolabel",
			Subsystem: "lca",
			Name:      "estimator_fallbacks_total",
			Help:      "Unknown ingredients left at default factors, by reason",
		}, []string{"reason"}),
		scores: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecolabel",
			Name:      "scores_total",
			Help:      "Total grades computed",
		}, []string{"grade", "model"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ecolabel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) RecordLCA(usedEstimation bool, fallbackReason string) {
	if m == nil {
		return
	}
	m.lcaCalculations.WithLabelValues(strconv.FormatBool(usedEstimation)).Inc()
	if fallbackReason != "" {
		m.estimatorFallbacks.WithLabelValues(fallbackReason).Inc()
	}
}

func (m *Metrics) RecordScore(grade, model string) {
	if m == nil {
		return
	}
	m.scores.WithLabelValues(grade, model).Inc()
}

// Middleware mesure la durée de chaque requête par route gin.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Observe(time.Since(start).Seconds())
	}
}
