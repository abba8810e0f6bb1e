// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "combiner",
			Name:      "fetch_total",
			Help:      "Chat log fetches by outcome (ok, empty, error).",
		},
		[]string{"outcome"},
	)

	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "combiner",
			Name:      "deliveries_total",
			Help:      "Combine-and-deliver runs by result.",
		},
		[]string{"result"},
	)

	combineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "combiner",
			Name:      "combine_duration_seconds",
			Help:      "Time to fetch every enabled chat and assemble the document.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func ObserveFetch(outcome string) {
	fetchTotal.WithLabelValues(outcome).Inc()
}

func ObserveDelivery(result string) {
	deliveriesTotal.WithLabelValues(result).Inc()
}

func ObserveCombine(d time.Duration) {
	combineDuration.Observe(d.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
