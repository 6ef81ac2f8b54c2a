// Package middleware provides production observers for cellui runtimes.
//
// This package includes:
//   - OpenTelemetry tracing (one span per turn)
//   - Prometheus metrics (turns, hook runs, flushes, messages, panics)
//
// Both implement reactive.Observer and can be combined:
//
//	metrics := middleware.NewMetrics()
//	rt := reactive.NewRuntime(doc, reactive.WithObserver(reactive.Observers(
//	    metrics,
//	    middleware.NewTracing(),
//	)))
//
// # OpenTelemetry
//
// Configure with options:
//
//	middleware.NewTracing(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithTurnFilter(func(kind string) bool {
//	        return kind != reactive.TurnDispatch
//	    }),
//	)
//
// # Prometheus Metrics
//
// Expose metrics on a separate port:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
package middleware
