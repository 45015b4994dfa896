// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package observability provides Prometheus metrics for the API and gateways.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Gateway metrics
	GatewayCalls    *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec

	// Synthetic data fallbacks by component
	MockFallbacks *prometheus.CounterVec

	// Open WebSocket connections
	WSConnections prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "mevscope"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		GatewayCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Total number of upstream gateway calls by outcome",
		}, []string{"gateway", "action", "outcome"}),
		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Upstream gateway call latency in seconds, retries included",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"gateway", "action"}),

		MockFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mock_fallbacks_total",
			Help:      "Total number of responses served from synthetic data",
		}, []string{"component"}),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Current number of open WebSocket connections",
		}),
	}
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordGatewayCall records one logical upstream call.
func (m *Metrics) RecordGatewayCall(gateway, action string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.GatewayCalls.WithLabelValues(gateway, action, outcome).Inc()
	m.GatewayDuration.WithLabelValues(gateway, action).Observe(d.Seconds())
}

// RecordFallback records a response built from synthetic data.
func (m *Metrics) RecordFallback(component string) {
	if m == nil {
		return
	}
	m.MockFallbacks.WithLabelValues(component).Inc()
}

// WSConnected adjusts the open connection gauge by delta.
func (m *Metrics) WSConnected(delta int) {
	if m == nil {
		return
	}
	m.WSConnections.Add(float64(delta))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
