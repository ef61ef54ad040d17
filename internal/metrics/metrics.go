// Package metrics centralizes the Prometheus collectors the gateway
// exposes at /metrics: requests by route, broker-invocation latency, and
// body-parser failures.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts every request the HTTP Server Front dispatches,
	// by method and path.
	RequestsTotal = register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Total HTTP requests handled by the gateway, by method and path.",
	}, []string{"method", "path"})).(*prometheus.CounterVec)

	// BrokerInvocationDuration tracks how long broker.Invoke calls take, by
	// action and outcome, so slow or failing actions show up without
	// reading broker-side logs.
	BrokerInvocationDuration = register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_broker_invocation_duration_seconds",
		Help:    "Latency of broker.Invoke calls, by action and outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action", "outcome"})).(*prometheus.HistogramVec)

	// ParserFailuresTotal counts body parser rejections (invalid JSON,
	// unparseable form bodies), by content type.
	ParserFailuresTotal = register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_parser_failures_total",
		Help: "Body parser failures, by content type.",
	}, []string{"content_type"})).(*prometheus.CounterVec)
)

// register guards against double-registration the way
// nexus-broker/internal/handlers/consent.go does around its own counter:
// if the collector is already registered in this process (constructing a
// second Gateway in the same process, as the tests do), reuse the
// existing one instead of panicking.
func register(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}

// ObserveBrokerInvocation records how long a broker.Invoke call for action
// took and whether it succeeded.
func ObserveBrokerInvocation(action string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	BrokerInvocationDuration.WithLabelValues(action, outcome).Observe(time.Since(start).Seconds())
}
