package validation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// validationsTotal counts completed validations by outcome.
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "validation_runs_total",
		Help: "Total number of bag validations by outcome (complete, incomplete)",
	}, []string{"outcome", "source"})

	// inferenceFailures counts inference errors by kind.
	inferenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "validation_inference_failures_total",
		Help: "Total number of inference failures by kind (unavailable, ambiguous)",
	}, []string{"kind"})

	// inferenceDuration tracks how long the vendor call takes.
	inferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "validation_inference_duration_seconds",
		Help:    "Time taken by the image inference call",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	// missingItemsPerValidation tracks how many items were missing.
	missingItemsPerValidation = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "validation_missing_items_count",
		Help:    "Number of missing item entries per validation",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})

	// storeAppendFailures counts failed record appends. A failed
	// append is user-visible, never swallowed; this metric exists so
	// it also pages someone.
	storeAppendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "validation_store_append_failures_total",
		Help: "Total number of failed validation record appends",
	})
)

func recordValidation(complete bool, source string, missingCount int) {
	outcome := "incomplete"
	if complete {
		outcome = "complete"
	}
	validationsTotal.WithLabelValues(outcome, source).Inc()
	missingItemsPerValidation.Observe(float64(missingCount))
}

func recordInference(duration time.Duration) {
	inferenceDuration.Observe(duration.Seconds())
}

func recordInferenceFailure(kind string) {
	inferenceFailures.WithLabelValues(kind).Inc()
}
