package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "console_sentinel",
			Name:      "events_total",
			Help:      "Total observed browser events, partitioned by severity and category.",
		},
		[]string{"severity", "category"},
	)

	fatalSignalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "console_sentinel",
			Name:      "fatal_signals_total",
			Help:      "Zero-tolerance fatal signals raised during monitoring.",
		},
	)

	correlationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "console_sentinel",
			Name:      "correlations_total",
			Help:      "Evidence correlations recorded, partitioned by risk level.",
		},
		[]string{"risk_level"},
	)

	reportsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "console_sentinel",
			Name:      "reports_written_total",
			Help:      "Report artifacts flushed to disk, partitioned by kind.",
		},
		[]string{"kind"},
	)

	responseLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "console_sentinel",
			Name:      "response_latency_seconds",
			Help:      "Observed page network response latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8},
		},
	)
)

// Register attaches console-sentinel collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		eventsTotal,
		fatalSignalsTotal,
		correlationsTotal,
		reportsWrittenTotal,
		responseLatencySeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveEvent counts one classified browser event.
func ObserveEvent(severity, category string) {
	eventsTotal.WithLabelValues(severity, category).Inc()
}

// ObserveFatalSignal counts a zero-tolerance abort.
func ObserveFatalSignal() {
	fatalSignalsTotal.Inc()
}

// ObserveCorrelation counts one stored correlation by risk level.
func ObserveCorrelation(riskLevel string) {
	correlationsTotal.WithLabelValues(riskLevel).Inc()
}

// ObserveReportWritten counts a flushed report artifact.
func ObserveReportWritten(kind string) {
	reportsWrittenTotal.WithLabelValues(kind).Inc()
}

// ObserveResponseLatency records one network response latency sample.
func ObserveResponseLatency(latency time.Duration) {
	responseLatencySeconds.Observe(latency.Seconds())
}
