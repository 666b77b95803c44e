package editor

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// useCaseDuration measures editor operations.
	// Labels: use_case, status (success, error)
	useCaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "appraise",
		Subsystem: "editor",
		Name:      "use_case_duration_seconds",
		Help:      "Editor operation latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"use_case", "status"})

	// commitsTotal counts autosave and manual commits per stream.
	// Labels: stream, status (success, error)
	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "appraise",
		Subsystem: "editor",
		Name:      "commits_total",
		Help:      "Stream commits by outcome",
	}, []string{"stream", "status"})
)

// MetricsObserver records editor events as prometheus metrics.
type MetricsObserver struct{}

func (MetricsObserver) ObserveUseCase(_ context.Context, event UseCaseEvent) {
	status := "success"
	if !event.Success {
		status = "error"
	}
	useCaseDuration.WithLabelValues(event.Name, status).Observe(event.Duration.Seconds())
	if event.Name == UseCaseCommit {
		stream, _ := event.Fields["stream"].(string)
		commitsTotal.WithLabelValues(stream, status).Inc()
	}
}
