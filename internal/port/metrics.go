package port

import "github.com/prometheus/client_golang/prometheus"

var (
	identityReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pmd",
		Name:      "identity_reads_total",
		Help:      "Identity page acquisitions by outcome.",
	}, []string{"port", "result"})

	diagnosticsReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pmd",
		Name:      "diagnostics_reads_total",
		Help:      "Diagnostics page acquisitions by outcome.",
	}, []string{"port", "result"})

	readRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pmd",
		Name:      "read_retries_total",
		Help:      "Page reads repeated after a bus or checksum failure.",
	}, []string{"port"})

	resets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pmd",
		Name:      "module_resets_total",
		Help:      "Reset pulses sent to modules.",
	}, []string{"port"})

	tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pmd",
		Name:      "poll_duration_seconds",
		Help:      "Time taken by one pass over all ports.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})
)

const (
	resultOK       = "ok"
	resultFailed   = "failed"
	resultChecksum = "checksum"
	resultUnparsed = "unparsed"
)

// Collectors returns the poll counters for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{identityReads, diagnosticsReads, readRetries, resets, tickDuration}
}

func forgetMetrics(name string) {
	identityReads.DeletePartialMatch(prometheus.Labels{"port": name})
	diagnosticsReads.DeletePartialMatch(prometheus.Labels{"port": name})
	readRetries.DeleteLabelValues(name)
	resets.DeleteLabelValues(name)
}
