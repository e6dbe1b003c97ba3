// Package server provides the HTTP server: Gin routing served over
// HTTP/1.1 and h2c, a net/http middleware stack and the operational
// endpoints.
//
// # Middleware
//
// Built-in middleware (server/middleware), applied around the whole mux:
//
//   - RequestID: X-Request-Id generation and propagation
//   - RequestLogger: request logging with duration
//   - Recovery: panic recovery with structured logging
//   - CORS: cross-origin resource sharing
//   - Compress: gzip responses (klauspost/compress/gzhttp)
//   - RateLimit: per-client token buckets
//   - Auth: bearer token and API key authentication
//   - BodySizeLimit: request body limit
//
// # Endpoints
//
// Built-in endpoints (server/endpoint): /health, /livez, /readyz, /info,
// /version and /metrics.
package server
