// Package server provides the HTTP API for the trading workflow engine:
// auth, settings, workflow CRUD and activation, execution history,
// symbol/quote lookups proxied to the brokerage gateway, and a websocket
// hub streaming live execution progress. It enables programmatic and
// UI-driven access to the engine with support for:
//   - RESTful API for workflow management and execution
//   - Bearer-token authentication with per-source-IP rate limiting
//   - Health check and readiness endpoints
//   - Prometheus metrics endpoint
//   - Request/response logging
//   - Graceful shutdown
package server
