package launcher

import "github.com/prometheus/client_golang/prometheus"

var launchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kuuzukid",
		Subsystem: "launcher",
		Name:      "launches_total",
		Help:      "Total ensure-server outcomes by result",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(launchesTotal)
}
