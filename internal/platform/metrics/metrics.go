// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics exposes Prometheus instrumentation for the API server.
//
// # Architecture
//
// A single [Registry] owns all collectors and is wired into the router once
// at startup. Handlers never touch collectors directly; the middleware
// observes every request, and the auth layer records failure counters
// through narrow helper methods.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles all Prometheus collectors for the server.
type Registry struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authFailures    *prometheus.CounterVec
	authzDenied     prometheus.Counter
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "irongate_http_requests_total",
			Help: "Total HTTP requests by method and status.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "irongate_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "irongate_authentication_failures_total",
			Help: "Authentication failures by internal reason.",
		}, []string{"reason"}),
		authzDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irongate_authorization_denied_total",
			Help: "Requests denied by policy evaluation.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.requestsTotal,
		r.requestDuration,
		r.authFailures,
		r.authzDenied,
	)

	return r
}

// Handler returns the /metrics HTTP handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// # Recording Helpers

// ObserveAuthFailure increments the authentication failure counter.
func (r *Registry) ObserveAuthFailure(reason string) {
	r.authFailures.WithLabelValues(reason).Inc()
}

// ObserveAuthzDenied increments the policy-denial counter.
func (r *Registry) ObserveAuthzDenied() {
	r.authzDenied.Inc()
}

// # Middleware

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// Middleware observes every request's method, status, and latency.
func (r *Registry) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			startTime := time.Now()
			wrappedWriter := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

			next.ServeHTTP(wrappedWriter, request)

			r.requestsTotal.WithLabelValues(request.Method, strconv.Itoa(wrappedWriter.status)).Inc()
			r.requestDuration.WithLabelValues(request.Method).Observe(time.Since(startTime).Seconds())
		})
	}
}
