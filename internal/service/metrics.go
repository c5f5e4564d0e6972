package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// chatTurnsTotal counts processed turns.
	// Labels: outcome (ok, degraded, rejected, error)
	chatTurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "chat",
		Name:      "turns_total",
		Help:      "Total chat turns by outcome",
	}, []string{"outcome"})

	// intentTotal counts classifier verdicts. Labels: intent ("none" when unmatched)
	intentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "classifier",
		Name:      "intent_total",
		Help:      "Classified messages by intent",
	}, []string{"intent"})

	classifyLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "assistant",
		Subsystem: "classifier",
		Name:      "latency_seconds",
		Help:      "Time spent classifying one message, embedding call included",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// embedFailuresTotal counts embedding calls that failed or timed out.
	// Labels: stage (warm, query)
	embedFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "embedder",
		Name:      "failures_total",
		Help:      "Failed embedding provider calls by stage",
	}, []string{"stage"})

	// extractionAnomalies counts numbers that matched a rule but did not parse.
	// Labels: field
	extractionAnomalies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Subsystem: "extractor",
		Name:      "anomalies_total",
		Help:      "Matched numeric tokens that failed to parse, by field",
	}, []string{"field"})
)

// RegisterContextGauge exposes the number of live user contexts.
// Call it once per process; a second registration is ignored.
func RegisterContextGauge(count func() int) {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "assistant",
		Subsystem: "context",
		Name:      "active",
		Help:      "Number of user contexts currently held in memory",
	}, func() float64 { return float64(count()) })

	if err := prometheus.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
	}
}
