// Package metrics exposes the Prometheus metrics of the gallery.
// All metrics are defined in their respective packages (pixabay, ratelimit,
// gallery, session, web) to maintain modularity and avoid circular dependencies.
//
// This package provides the scrape handler and a reference of all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the gallery.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/pixabay):
//   - pixabay_requests_total{status} (Counter): Search requests by HTTP status, "network_error" or "rate_limited"
//   - pixabay_request_duration_seconds (Histogram): Search request duration
//   - pixabay_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - pixabay_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - pixabay_rate_limit_blocks_total (Counter): Requests blocked because the quota is nearly exhausted
//   - pixabay_rate_limit_throttles_total (Counter): Requests delayed because the quota is running low
//
// Gallery Metrics (pkg/gallery, pkg/session):
//   - gallery_entries_rendered_total (Counter): Entries appended to a surface
//   - gallery_actions_total{action, outcome} (Counter): Submit and load_more actions by resulting
//     state (has_more, exhausted, empty, error) or rejection (validation, busy, not_paginating)
//
// Browser Metrics (pkg/web):
//   - gallery_connections (Gauge): Open browser connections
//   - gallery_events_ignored_total{type} (Counter): Events dropped while an action was in flight
//
// Example Prometheus Queries:
//
//   # Searches without results
//   sum(rate(gallery_actions_total{action="submit",outcome="empty"}[5m]))
//
//   # Quota Status
//   pixabay_rate_limit_remaining < 10
//
//   # Request Error Rate
//   rate(pixabay_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(pixabay_request_duration_seconds_bucket[5m]))
//
//   # Share of searches paged at least once
//   sum(rate(gallery_actions_total{action="load_more"}[1h])) /
//   sum(rate(gallery_actions_total{action="submit"}[1h]))
