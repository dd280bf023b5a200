// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rotadesk/backend/internal/domain"
)

const (
	WorkflowHoliday = "holiday"
	WorkflowSwap    = "swap"
	WorkflowRota    = "rota"
)

var (
	workflowDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rota",
		Subsystem: "workflow",
		Name:      "decisions_total",
		Help:      "Workflow operations broken down by workflow, decision and result.",
	}, []string{"workflow", "decision", "result"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rota",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests by method and status code.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "status"})
)

// Result classifies an operation outcome for the result label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStoreFailure):
		return "store_failure"
	case errors.Is(err, domain.ErrCascadeDeclined):
		return "needs_confirmation"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	default:
		return "rejected"
	}
}

// RecordDecision counts one workflow operation.
func RecordDecision(workflow, decision string, err error) {
	workflowDecisions.With(prometheus.Labels{
		"workflow": workflow,
		"decision": decision,
		"result":   Result(err),
	}).Inc()
}

func ObserveHTTP(method string, status int, d time.Duration) {
	httpDuration.With(prometheus.Labels{
		"method": method,
		"status": strconv.Itoa(status),
	}).Observe(d.Seconds())
}
