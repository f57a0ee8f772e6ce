// ABOUTME: Recording Invoker implementation for testing
// ABOUTME: Captures invocations in memory and serves canned sync responses

package invoke

import (
	"context"
	"encoding/json"
	"sync"
)

// Invocation is one captured call on a RecordingInvoker.
type Invocation struct {
	Target  string
	Mode    string // "async" or "sync"
	Payload map[string]any
}

// RecordingInvoker is an in-memory Invoker for tests. Fire and Call capture
// their payloads; Call returns the configured response for the target.
type RecordingInvoker struct {
	mu          sync.Mutex
	invocations []Invocation

	// Responses maps target name to the body returned by Call.
	Responses map[string][]byte

	// CallErr, when set, is returned by every Call.
	CallErr error
}

// NewRecordingInvoker creates an empty RecordingInvoker.
func NewRecordingInvoker() *RecordingInvoker {
	return &RecordingInvoker{
		Responses: make(map[string][]byte),
	}
}

// Fire captures an asynchronous invocation.
func (r *RecordingInvoker) Fire(ctx context.Context, target string, payload any) {
	r.capture(target, "async", payload)
}

// Call captures a synchronous invocation and returns the canned response.
func (r *RecordingInvoker) Call(ctx context.Context, target string, payload any) ([]byte, error) {
	r.capture(target, "sync", payload)
	if r.CallErr != nil {
		return nil, r.CallErr
	}
	return r.Responses[target], nil
}

func (r *RecordingInvoker) capture(target, mode string, payload any) {
	// Round-trip through JSON so assertions see the wire shape.
	data, err := json.Marshal(payload)
	if err != nil {
		panic("recording invoker: unmarshalable payload: " + err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		panic("recording invoker: non-object payload: " + err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.invocations = append(r.invocations, Invocation{Target: target, Mode: mode, Payload: m})
}

// Invocations returns a copy of all captured invocations in call order.
func (r *RecordingInvoker) Invocations() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Invocation, len(r.invocations))
	copy(out, r.invocations)
	return out
}

// ByTarget returns captured invocations for one target, in call order.
func (r *RecordingInvoker) ByTarget(target string) []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Invocation
	for _, inv := range r.invocations {
		if inv.Target == target {
			out = append(out, inv)
		}
	}
	return out
}
