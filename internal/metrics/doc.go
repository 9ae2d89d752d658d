// Package metrics provides observability hooks for builds, the change watcher
// and the live-reload server.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	builder := build.NewBuilder(cfg)                                    // NoopRecorder
//	builder := build.NewBuilder(cfg).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The dev command always records into a PrometheusRecorder; HTTPHandler
// exposes its registry when an admin port is configured.
package metrics
