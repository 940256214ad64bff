package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "title_rag_query_duration_seconds",
			Help:    "Pipeline duration in seconds, retrieval to evaluation",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"status"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "title_rag_query_total",
			Help: "Total number of queries processed",
		},
		[]string{"status"},
	)

	RetrievedRecords = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "title_rag_retrieved_records",
			Help:    "Number of records retrieved per query",
			Buckets: []float64{0, 1, 2, 5, 10},
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "title_rag_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "stage", "type"},
	)

	LLMCost = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "title_rag_llm_cost_usd",
			Help: "Estimated LLM API cost in USD",
		},
		[]string{"model"},
	)

	RelevanceVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "title_rag_relevance_verdicts_total",
			Help: "Self-evaluation verdicts by relevance",
		},
		[]string{"relevance"},
	)

	UserFeedback = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "title_rag_user_feedback_total",
			Help: "User feedback received",
		},
		[]string{"value"},
	)

	PersistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "title_rag_persistence_failures_total",
			Help: "Query records that could not be persisted",
		},
		[]string{"stage"},
	)

	DocumentsIndexed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "title_rag_documents_indexed_total",
			Help: "Total records written to the search index",
		},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			QueryDuration,
			QueryTotal,
			RetrievedRecords,
			LLMTokensUsed,
			LLMCost,
			RelevanceVerdicts,
			UserFeedback,
			PersistenceFailures,
			DocumentsIndexed,
		)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
