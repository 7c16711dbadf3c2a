// Package metrics provides the observability hooks of the render pipeline.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so call sites never check for nil:
//
//	p, err := pipeline.New(cfg, pipeline.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// Builds that run from cron or CI export the registry with WriteTextfile for
// the node-exporter textfile collector instead of serving it.
package metrics
