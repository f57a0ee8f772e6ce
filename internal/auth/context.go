// ABOUTME: Context propagation for the authenticated connector identity
// ABOUTME: Pairs with the HTTP middleware's ConnectorID accessor

package auth

import "context"

// withConnectorID returns a context carrying the authenticated connector ID.
func withConnectorID(ctx context.Context, connectorID string) context.Context {
	return context.WithValue(ctx, connectorIDKey, connectorID)
}
