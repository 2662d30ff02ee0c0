// Package api hosts the ops HTTP server: probe endpoints, the Prometheus
// scrape surface, and a read-only view of sync progress. Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /progress for the latest run snapshot via the SnapshotSource
//     interface.
package api
