package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PowerAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jupiter_power_api_calls_total",
			Help: "Total NASA POWER API calls",
		},
		[]string{"status"},
	)

	PowerAPILatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jupiter_power_api_latency_seconds",
			Help:    "NASA POWER API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecordsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jupiter_records_ingested_total",
			Help: "Total historical records upserted into the cache",
		},
	)

	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jupiter_fallbacks_total",
			Help: "Requests served by a fallback path instead of live data or a trained model",
		},
		[]string{"mode"},
	)

	TrainingRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jupiter_training_runs_total",
			Help: "Completed model training runs",
		},
	)

	TrainingRMSE = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jupiter_training_rmse",
			Help: "Validation RMSE of the currently persisted model",
		},
	)
)
