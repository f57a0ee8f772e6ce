// ABOUTME: Deterministic account identifier derivation from conversation identifiers
// ABOUTME: Pure function so concurrent first-contact events derive the same ID

package identity

import (
	"crypto/md5" //nolint:gosec // not used for security, only as a stable ID derivation
	"encoding/hex"
)

// AccountID derives the stable pseudonymous account identifier for a
// conversation. The derivation is a one-way hash of the conversation
// identifier, so the account ID is recomputable without a lookup and
// identical across concurrent first-contact events.
func AccountID(conversationID string) string {
	sum := md5.Sum([]byte(conversationID)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
