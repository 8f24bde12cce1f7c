// Package prometheus renders vigil engine metrics for Prometheus scraping.
//
// [NewExporter] accepts a [vigil.Engine] and exposes an [net/http.Handler]
// that renders all counters and the Authenticate latency histogram in
// Prometheus text exposition format. Counter names are prefixed
// vigil_*_total; the histogram is vigil_authenticate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
