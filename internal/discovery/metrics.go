package discovery

import "github.com/prometheus/client_golang/prometheus"

var (
	probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kuuzukid",
			Subsystem: "discovery",
			Name:      "probes_total",
			Help:      "Total number of health probes by outcome",
		},
		[]string{"outcome"},
	)

	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kuuzukid",
			Subsystem: "discovery",
			Name:      "scans_total",
			Help:      "Total number of port scans by result",
		},
		[]string{"result"},
	)

	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kuuzukid",
			Subsystem: "discovery",
			Name:      "scan_duration_seconds",
			Help:      "Duration of full port scans in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(probesTotal, scansTotal, scanDuration)
}
