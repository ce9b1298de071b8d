// Package api implements the HTTP REST API and WebSocket server for Greenhouse Core.
//
// This package provides:
//   - REST endpoints over the catalog, the bus store, reports and forecasts
//   - Reading ingestion into the online control loop
//   - WebSocket hub that streams bus events to subscribed clients
//   - JWT bearer authentication with role permissions
//   - Middleware stack (request ID, logging, recovery, CORS, metrics)
//
// # Architecture
//
// The API server sits beside the MQTT ingest path. A reading posted over
// HTTP goes through the same control.Service as one received on
// greenhouse/sensor/{id}/reading, so bus state, commands and alerts are
// identical whichever way the reading arrived. Every successful bus
// publish is relayed to WebSocket clients subscribed to the lower-cased
// event name ("reading", "actuate", "alert_raised", ...) or to "*".
//
// # Security
//
// When security.jwt.enabled is set, every route except /api/v1/health and
// /metrics requires "Authorization: Bearer <token>". WebSocket clients
// that cannot set headers pass the token as ?access_token=.
//
// # Graceful Degradation
//
// Control, Publisher, MQTT, DB and Metrics are optional. Endpoints that
// need a missing component answer 503; the rest keep working.
package api
