// Package metrics provides the observability hooks for the tracker,
// registrar and archiver jobs and for the view pipeline.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never requires nil checks at call
// sites:
//
//	type Tracker struct {
//	    recorder metrics.Recorder
//	}
//
// When serving, the daemon swaps in a PrometheusRecorder backed by its own
// registry and exposes it on /metrics:
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	mux.Handle("GET /metrics", metrics.HTTPHandler(reg))
//
// One-shot commands keep the noop default.
package metrics
