// ABOUTME: Downstream invocation client for AI, ticketing, and translation targets
// ABOUTME: Supports fire-and-forget and request/response invocation classes

package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Target names for downstream invocation targets. Targets are resolved to
// URLs by configuration, never hardcoded.
const (
	TargetAIHandler   = "ai_handler"
	TargetTicketing   = "ticketing_handler"
	TargetTranslation = "translation_service"
)

// defaultTimeout bounds a single downstream invocation when no per-target
// timeout is configured.
const defaultTimeout = 30 * time.Second

// Invoker dispatches JSON payloads to named downstream targets.
type Invoker interface {
	// Fire invokes a target asynchronously. The caller does not wait for
	// or inspect the response; failures are logged and counted only.
	Fire(ctx context.Context, target string, payload any)

	// Call invokes a target synchronously and returns the response body.
	Call(ctx context.Context, target string, payload any) ([]byte, error)
}

// Recorder counts invocation outcomes. Implementations must be safe for
// concurrent use. A nil Recorder disables recording.
type Recorder interface {
	RecordInvocation(target, mode, outcome string)
}

// Endpoint describes one configured invocation target.
type Endpoint struct {
	URL     string
	Timeout time.Duration
}

// HTTPInvoker implements Invoker by POSTing JSON payloads to configured
// target URLs.
type HTTPInvoker struct {
	endpoints map[string]Endpoint
	client    *http.Client
	recorder  Recorder
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewHTTPInvoker creates an invoker for the given named endpoints.
func NewHTTPInvoker(endpoints map[string]Endpoint, recorder Recorder, logger *slog.Logger) *HTTPInvoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPInvoker{
		endpoints: endpoints,
		client:    &http.Client{},
		recorder:  recorder,
		logger:    logger.With("component", "invoker"),
	}
}

// Fire invokes the target asynchronously. The invocation outlives the
// inbound request context; cancellation of ctx does not cancel the POST.
func (i *HTTPInvoker) Fire(ctx context.Context, target string, payload any) {
	// Detach from the request lifecycle but keep context values for tracing.
	detached := context.WithoutCancel(ctx)

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		if _, err := i.post(detached, target, payload); err != nil {
			i.logger.Error("async invocation failed", "target", target, "error", err)
			i.record(target, "async", "error")
			return
		}
		i.record(target, "async", "ok")
	}()
}

// Call invokes the target synchronously and returns the response body.
func (i *HTTPInvoker) Call(ctx context.Context, target string, payload any) ([]byte, error) {
	body, err := i.post(ctx, target, payload)
	if err != nil {
		i.record(target, "sync", "error")
		return nil, err
	}
	i.record(target, "sync", "ok")
	return body, nil
}

// post marshals the payload and performs the HTTP POST to the target URL.
func (i *HTTPInvoker) post(ctx context.Context, target string, payload any) ([]byte, error) {
	endpoint, ok := i.endpoints[target]
	if !ok || endpoint.URL == "" {
		return nil, fmt.Errorf("no endpoint configured for target %q", target)
	}

	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(endpoint.URL, "/"), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoking %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned status %d", target, resp.StatusCode)
	}

	return body, nil
}

func (i *HTTPInvoker) record(target, mode, outcome string) {
	if i.recorder != nil {
		i.recorder.RecordInvocation(target, mode, outcome)
	}
}

// Close waits for in-flight asynchronous invocations to finish.
func (i *HTTPInvoker) Close() {
	i.wg.Wait()
}
