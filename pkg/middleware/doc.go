// Package middleware provides HTTP middleware for the storefront server.
//
// This package includes:
//   - OpenTelemetry tracing middleware built on otelhttp
//   - Prometheus metrics middleware and store operation counters
//
// # OpenTelemetry Middleware
//
// Every request gets a server span named after its chi route pattern:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("storefront"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
//
// Store operations inside a handler open child spans with StartStoreSpan.
//
// # Prometheus Metrics
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r.Use(m.Handler)
//	c := cart.New(items, cart.WithObserver(m.ObserveStore("cart")))
//
// Metrics collected (namespace "storefront" by default):
//   - storefront_http_requests_total: requests by route, method and status
//   - storefront_http_request_duration_seconds: request latency by route
//   - storefront_store_operations_total: store operations by store, op and result
//   - storefront_websocket_clients: connected WebSocket clients
//   - storefront_toasts_shown_total: toasts shown by type
package middleware
