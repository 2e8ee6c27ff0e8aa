package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model-provider and pipeline Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "examdeck",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "examdeck",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "examdeck",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model", "type"},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "examdeck",
			Name:      "generation_requests_total",
			Help:      "Total number of chat/analysis generation requests",
		},
		[]string{"model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "examdeck",
			Name:      "generation_request_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"model"},
	)

	SectionsIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "examdeck",
			Name:      "sections_indexed_total",
			Help:      "Total sections persisted to the searchable index",
		},
	)

	SectionsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "examdeck",
			Name:      "sections_dropped_total",
			Help:      "Total sections dropped because their embedding call failed",
		},
	)

	ChatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "examdeck",
			Name:      "chat_turns_total",
			Help:      "Total chat turns by outcome",
		},
		[]string{"outcome"}, // "answered" / "no_match" / "error"
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers provider and pipeline metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(SectionsIndexedTotal)
	prometheus.MustRegister(SectionsDroppedTotal)
	prometheus.MustRegister(ChatTurnsTotal)
	llmMetricsRegistered = true
}
