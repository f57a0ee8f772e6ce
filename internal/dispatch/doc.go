// Package dispatch is the orchestration core of the relay.
//
// # Pipeline
//
// For each inbound event the dispatcher:
//
//  1. Validates the payload type (message or invoke); anything else is
//     acknowledged and dropped.
//  2. Loads the client's credential record; an unknown client aborts with
//     no downstream calls and no store mutation.
//  3. Resolves the conversation identity, creating the record on first
//     contact (account ID derived deterministically, email via directory
//     lookup, store write retried once).
//  4. Upserts the reverse identity index unconditionally.
//  5. Fans out: text messages go to the AI handler (optionally translated)
//     and the transcript; every message opens a ticket; attachments fire
//     paired AI and ticketing invocations.
//
// # Boundary contract
//
// Handle never signals failure to its invoker: every path, including
// panics, returns a 200 acknowledgment. The upstream connector retries on
// non-2xx, and replaying an event would repeat side effects that are not
// idempotent. All failure detail lives in logs and metrics.
package dispatch
