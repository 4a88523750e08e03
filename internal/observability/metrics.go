package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	siteRequestsTotal     *prometheus.CounterVec
	siteLatencySeconds    *prometheus.HistogramVec
	predictionsTotal      *prometheus.CounterVec
	predictionLatency     prometheus.Histogram
	predictionProbability prometheus.Histogram
	llmRequestsTotal      *prometheus.CounterVec
	llmLatencySeconds     *prometheus.HistogramVec
	llmRetriesTotal       *prometheus.CounterVec
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	cacheFillsTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors. Safe to call repeatedly.
func RegisterMetrics() {
	registerOnce.Do(func() {
		siteRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leetprob_site_requests_total",
			Help: "GraphQL requests sent to the practice site, by operation and outcome.",
		}, []string{"operation", "outcome"})

		siteLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leetprob_site_latency_seconds",
			Help:    "Latency of GraphQL requests to the practice site.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"operation"})

		predictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leetprob_predictions_total",
			Help: "Probability calculations, by outcome.",
		}, []string{"outcome"})

		predictionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leetprob_prediction_latency_seconds",
			Help:    "End-to-end latency of a probability calculation.",
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60},
		})

		predictionProbability = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leetprob_prediction_probability",
			Help:    "Distribution of computed solve probabilities.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		})

		llmRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leetprob_llm_requests_total",
			Help: "LLM requests, by model, purpose and outcome.",
		}, []string{"model", "purpose", "outcome"})

		llmLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leetprob_llm_latency_seconds",
			Help:    "Latency of LLM requests.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"model"})

		llmRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leetprob_llm_retries_total",
			Help: "LLM request retries, by purpose and error kind.",
		}, []string{"purpose", "reason"})

		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leetprob_api_requests_total",
			Help: "Requests served by the companion API.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leetprob_api_latency_seconds",
			Help:    "Latency distribution for companion API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 10.0},
		}, []string{"method", "route"})

		cacheFillsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leetprob_cache_fills_total",
			Help: "Entries fetched from the site to fill a local cache.",
		}, []string{"cache"})

		prometheus.MustRegister(
			siteRequestsTotal, siteLatencySeconds,
			predictionsTotal, predictionLatency, predictionProbability,
			llmRequestsTotal, llmLatencySeconds, llmRetriesTotal,
			apiRequestsTotal, apiLatencySeconds,
			cacheFillsTotal,
		)
	})
}

// SiteRequests exposes the counter for practice-site GraphQL calls.
func SiteRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return siteRequestsTotal
}

// SiteLatency exposes the latency histogram for practice-site GraphQL calls.
func SiteLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return siteLatencySeconds
}

// Predictions exposes the counter for probability calculations.
func Predictions() *prometheus.CounterVec {
	RegisterMetrics()
	return predictionsTotal
}

// PredictionLatency exposes the end-to-end calculation latency histogram.
func PredictionLatency() prometheus.Histogram {
	RegisterMetrics()
	return predictionLatency
}

// PredictionProbability exposes the histogram of computed probabilities.
func PredictionProbability() prometheus.Histogram {
	RegisterMetrics()
	return predictionProbability
}

// LLMRequests exposes the counter for LLM calls.
func LLMRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return llmRequestsTotal
}

// LLMLatency exposes the latency histogram for LLM calls.
func LLMLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return llmLatencySeconds
}

// LLMRetries exposes the counter for retried LLM requests.
func LLMRetries() *prometheus.CounterVec {
	RegisterMetrics()
	return llmRetriesTotal
}

// APIRequests exposes the counter for companion API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for companion API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// CacheFills exposes the counter of entries fetched into local caches.
func CacheFills() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheFillsTotal
}
