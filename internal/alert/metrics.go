package alert

import "github.com/prometheus/client_golang/prometheus"

var (
	ticksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "upbit",
		Subsystem: "alert_bot",
		Name:      "ticks_total",
		Help:      "The total number of polling cycles run",
	})
	alertsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "upbit",
		Subsystem: "alert_bot",
		Name:      "alerts_sent",
		Help:      "The total number of alert notifications delivered",
	})
	sendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "upbit",
		Subsystem: "alert_bot",
		Name:      "send_failures",
		Help:      "The total number of failed notification deliveries",
	})
	fetchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "upbit",
		Subsystem: "alert_bot",
		Name:      "fetch_failures",
		Help:      "The total number of polling cycles skipped because the price fetch failed",
	})
	trackedPairs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "upbit",
		Subsystem: "alert_bot",
		Name:      "tracked_pairs",
		Help:      "The current number of registered trackers",
	})
)

func init() {
	prometheus.MustRegister(ticksTotal)
	prometheus.MustRegister(alertsSent)
	prometheus.MustRegister(sendFailures)
	prometheus.MustRegister(fetchFailures)
	prometheus.MustRegister(trackedPairs)
}
