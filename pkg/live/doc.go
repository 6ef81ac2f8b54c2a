// Package live serves reactive components to browsers over WebSocket.
//
// Every connection gets its own reactive.Runtime driving a Document, a
// dom.Document that applies mutations to an in-memory mirror and records
// them as ops. After each turn the recorded ops are sent as one msgpack
// Frame; the first frame of a session carries the HTML snapshot and the ops
// that rebuild it. Clients report host events with EventFrame, which the
// session dispatches onto its loop and fires on the mirror node.
//
//	app := live.Root(counterView, func() *Counter {
//		return &Counter{Count: reactive.NewCell(0)}
//	})
//	srv := live.New(app, &live.Config{Addr: ":3000"},
//		live.WithMetrics(metrics, prometheus.DefaultGatherer),
//	)
//	err := srv.Run(ctx)
//
// Routes:
//
//	GET /         server-rendered page
//	GET /ws       live session
//	GET /healthz  status and open session count
//	GET /metrics  Prometheus metrics, when configured
package live
