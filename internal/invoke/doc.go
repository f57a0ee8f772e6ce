// Package invoke dispatches JSON payloads to named downstream targets.
//
// Two invocation classes exist:
//
//   - Fire: asynchronous fire-and-forget. The caller never blocks on or
//     inspects the result; failures surface only in logs and metrics.
//   - Call: synchronous request/response. The caller is coupled to the
//     callee's latency and failure mode. Only the translation target uses
//     this class.
//
// Targets are addressed by name (TargetAIHandler, TargetTicketing,
// TargetTranslation) and resolved to URLs by configuration.
package invoke
