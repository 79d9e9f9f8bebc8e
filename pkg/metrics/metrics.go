// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package metrics exposes the Prometheus instrumentation for hook outcomes
// and upstream calls. /metrics is served by its own mux on a separate
// listener, apart from the catch-all proxy route, so it never shadows an S3
// path.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/s3hookproxy/proxy/pkg/event"
)

// Metrics bundles the counters and histograms the proxy records.
type Metrics struct {
	HookInvocations  *prometheus.CounterVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
}

// New constructs and registers the proxy's metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HookInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "s3hookproxy_hook_invocations_total",
			Help: "Count of hook invocations by event, hook name, and result.",
		}, []string{"event", "hook", "result"}),
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "s3hookproxy_upstream_requests_total",
			Help: "Count of upstream object-store requests by method and status.",
		}, []string{"method", "status"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "s3hookproxy_upstream_request_duration_seconds",
			Help:    "Latency of upstream object-store requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// RecordHookResults tags each result's outcome under eventName.
func (m *Metrics) RecordHookResults(eventName string, results []event.Result) {
	for _, r := range results {
		result := "success"
		if !r.Success {
			result = "failure"
		}
		m.HookInvocations.WithLabelValues(eventName, r.Name, result).Inc()
	}
}

// RecordUpstreamRequest tags a completed object-store request by method and
// status, and observes its latency.
func (m *Metrics) RecordUpstreamRequest(method string, status int, duration time.Duration) {
	m.UpstreamRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.UpstreamDuration.WithLabelValues(method).Observe(duration.Seconds())
}
