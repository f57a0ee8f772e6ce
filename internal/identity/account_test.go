// ABOUTME: Tests for account identifier derivation
// ABOUTME: Covers determinism and hex encoding of the derived ID

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountID_Deterministic(t *testing.T) {
	a := AccountID("19:meeting_abc@thread.v2")
	b := AccountID("19:meeting_abc@thread.v2")
	assert.Equal(t, a, b)
}

func TestAccountID_DistinctConversations(t *testing.T) {
	a := AccountID("conv-1")
	b := AccountID("conv-2")
	assert.NotEqual(t, a, b)
}

func TestAccountID_KnownValue(t *testing.T) {
	// md5("conversation") — stable across releases; downstream services
	// key off this value.
	assert.Equal(t, "b24e9760291913eedc16833c977f976f", AccountID("conversation"))
	assert.Len(t, AccountID("anything"), 32)
}
