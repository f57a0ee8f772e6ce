// Package relay wires the teams-relay components behind one HTTP server.
//
// # Endpoints
//
//   - POST /events: inbound channel events. Authenticated with a JWT bearer
//     token when auth.jwt_secret is configured. Every dispatched event is
//     acknowledged with status 200; the body is "handled" on success and
//     "lambda execution." on failure, so the connector never redelivers.
//   - GET /health: liveness probe, always 200.
//   - GET /metrics: Prometheus exposition, when metrics.enabled is set.
//
// # Lifecycle
//
// New builds the store, resolver, invoker, and dispatcher from the loaded
// configuration. Run blocks until the context is canceled, then drains
// in-flight downstream invocations and closes the store.
package relay
