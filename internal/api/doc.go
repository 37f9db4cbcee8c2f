// Package api hosts the HTTP server, middleware, and REST handlers. Notable routes:
//   - POST /api/v1/fetch-insights?website_url=&save_to_db=&refresh= profiles a storefront.
//   - GET/DELETE /api/v1/brands[/{brand_id}] reads and removes persisted brands.
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
