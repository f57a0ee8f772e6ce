// Package auth provides authentication for teams-relay.
//
// # Authentication Method
//
// Upstream channel connectors authenticate with JWT bearer tokens signed
// with HS256 using the configured jwt_secret. The "sub" claim identifies
// the connector and is logged with each accepted request.
//
// Authentication is optional: when no jwt_secret is configured the relay
// accepts unauthenticated events. When enabled, authentication failures are
// the only requests answered with a non-200 status; everything past the
// middleware is acknowledged with 200 regardless of outcome so the
// connector never retries a delivered event.
//
// # Token Management
//
// Tokens for connectors:
//
//	verifier := NewJWTVerifier(secret)
//	token, err := verifier.Generate(connectorID, 24*time.Hour)
//	connectorID, err := verifier.Verify(token)
package auth
