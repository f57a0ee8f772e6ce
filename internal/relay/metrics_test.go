// ABOUTME: Tests for the Prometheus metrics collectors
// ABOUTME: Verifies counters appear in the exposition output with labels

package relay

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Exposition(t *testing.T) {
	m := NewMetrics()
	m.RecordEvent("message", "ok")
	m.RecordEvent("message", "error")
	m.RecordInvocation("ai_handler", "async", "ok")
	m.RecordIdentityLookup("error")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `relay_events_total{outcome="ok",type="message"} 1`)
	assert.Contains(t, body, `relay_events_total{outcome="error",type="message"} 1`)
	assert.Contains(t, body, `relay_invocations_total{mode="async",outcome="ok",target="ai_handler"} 1`)
	assert.Contains(t, body, `relay_identity_lookups_total{outcome="error"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.RecordEvent("message", "ok")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)

	assert.NotContains(t, rec.Body.String(), `relay_events_total{outcome="ok",type="message"} 1`)
}
