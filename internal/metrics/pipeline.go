package metrics

import "github.com/prometheus/client_golang/prometheus"

// Detection pipeline Prometheus metrics.
var (
	FingerprintsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copyshield",
			Name:      "fingerprints_total",
			Help:      "Total number of fingerprint builds",
		},
		[]string{"content_type", "status"},
	)

	FingerprintDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "copyshield",
			Name:      "fingerprint_duration_seconds",
			Help:      "Fingerprint build duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"content_type"},
	)

	ComparisonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copyshield",
			Name:      "comparisons_total",
			Help:      "Total number of fingerprint comparisons",
		},
		[]string{"match_type"},
	)

	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copyshield",
			Name:      "decisions_total",
			Help:      "Total number of scoring decisions",
		},
		[]string{"decision_class", "mode"}, // mode: "ensemble" / "fallback" / "failsafe"
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copyshield",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	TranscriptionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copyshield",
			Name:      "transcription_requests_total",
			Help:      "Total number of speech-to-text requests",
		},
		[]string{"provider", "status"},
	)

	FingerprintCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copyshield",
			Name:      "fingerprint_cache_total",
			Help:      "Fingerprint cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(FingerprintsTotal)
	prometheus.MustRegister(FingerprintDuration)
	prometheus.MustRegister(ComparisonsTotal)
	prometheus.MustRegister(DecisionsTotal)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(TranscriptionRequestsTotal)
	prometheus.MustRegister(FingerprintCacheTotal)
	pipelineMetricsRegistered = true
}
