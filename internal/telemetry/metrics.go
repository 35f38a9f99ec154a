package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var JobsEnqueuedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "openlabs",
		Subsystem: "jobs",
		Name:      "enqueued_total",
		Help:      "Total number of jobs enqueued, by name.",
	},
	[]string{"name"},
)

var JobsCompletedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "openlabs",
		Subsystem: "jobs",
		Name:      "completed_total",
		Help:      "Total number of jobs completed, by name and status.",
	},
	[]string{"name", "status"},
)

var JobDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "openlabs",
		Subsystem: "jobs",
		Name:      "duration_seconds",
		Help:      "End-to-end job processing duration in seconds.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400},
	},
	[]string{"name"},
)

var ProvisionerRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "openlabs",
		Subsystem: "provisioner",
		Name:      "runs_total",
		Help:      "Total number of provisioner subprocess invocations, by command and outcome.",
	},
	[]string{"command", "outcome"},
)

var ProvisionerDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "openlabs",
		Subsystem: "provisioner",
		Name:      "duration_seconds",
		Help:      "Provisioner subprocess wall-clock duration in seconds.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400},
	},
	[]string{"command"},
)

var DeployedRangesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "openlabs",
		Subsystem: "ranges",
		Name:      "deployed_total",
		Help:      "Total number of ranges that reached the ON state, by provider.",
	},
	[]string{"provider"},
)

// All returns all OpenLabs-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		JobsEnqueuedTotal,
		JobsCompletedTotal,
		JobDuration,
		ProvisionerRunsTotal,
		ProvisionerDuration,
		DeployedRangesTotal,
	}
}

// NewMetricsRegistry builds a fresh registry carrying the process/Go
// runtime collectors plus every domain collector passed in.
func NewMetricsRegistry(domain ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	for _, c := range domain {
		reg.MustRegister(c)
	}
	return reg
}
