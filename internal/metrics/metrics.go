// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

// Package metrics exposes Prometheus instrumentation for the dispatch server:
// gateway connections and deliveries, API latency and throughput, and
// document-store operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocket gateway metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSGroupMembers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_group_members",
			Help: "Current number of connections per notification group",
		},
		[]string{"group"},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped (slow consumers)",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Event publishing metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_events_published_total",
			Help: "Total number of dispatch events published, by event type",
		},
		[]string{"event_type"},
	)

	EventDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_event_deliveries_total",
			Help: "Total event delivery outcomes",
		},
		[]string{"event_type", "outcome"}, // outcome: "delivered", "no_recipients", "failed"
	)

	KeepalivesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_keepalives_sent_total",
			Help: "Total number of keepalive broadcasts sent",
		},
	)

	KeepalivesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_keepalives_skipped_total",
			Help: "Total number of keepalive ticks skipped (no connections)",
		},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Document store metrics
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	StoreOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of document store operation errors",
		},
		[]string{"operation", "collection"},
	)

	// Authentication metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"}, // "success", "invalid_credentials", "invalid_token", "expired_token"
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreOp records a document store operation metric
func RecordStoreOp(operation, collection string, duration time.Duration, err error) {
	StoreOpDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		StoreOpErrors.WithLabelValues(operation, collection).Inc()
	}
}

// RecordEventDelivery records the outcome of a published event
func RecordEventDelivery(eventType string, recipients int, err error) {
	EventsPublished.WithLabelValues(eventType).Inc()
	switch {
	case err != nil:
		EventDeliveries.WithLabelValues(eventType, "failed").Inc()
	case recipients == 0:
		EventDeliveries.WithLabelValues(eventType, "no_recipients").Inc()
	default:
		EventDeliveries.WithLabelValues(eventType, "delivered").Inc()
	}
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
