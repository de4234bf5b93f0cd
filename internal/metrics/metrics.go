// Package metrics exposes Prometheus collectors for the estimator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var quotesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "weighted_quotes_total",
		Help: "Pool math computations by operation and result.",
	},
	[]string{
		"op",
		"result",
	},
)

var poolReadSeconds = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "weighted_pool_read_seconds",
		Help:    "Time spent reading pool state from the node.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method"},
)

// QuoteComputed records the outcome of one pool math operation.
func QuoteComputed(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	quotesTotal.WithLabelValues(op, result).Inc()
}

// PoolReadTimer starts a timer observed into the pool read histogram once
// ObserveDuration is called.
func PoolReadTimer(method string) *prometheus.Timer {
	return prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		poolReadSeconds.WithLabelValues(method).Observe(v)
	}))
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
