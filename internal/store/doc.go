// Package store provides persistent storage for the relay using SQLite.
//
// # Data Models
//
//   - Credentials: per-client channel OAuth settings and feature flags,
//     provisioned out-of-band and read-only to the dispatcher
//   - Conversation: conversation → account identity mapping with cached
//     email, display name, and an append-only chat transcript
//   - ReverseIndexEntry: account → conversation mapping, denormalized and
//     rebuilt on every event
//
// # Concurrency
//
// Multiple events may be processed concurrently for the same conversation.
// No locking is performed around record creation: first-contact races are
// last-writer-wins, which is benign because the account identifier is
// derived deterministically from the conversation identifier.
//
// SQLiteStore implements the Store interface; MockStore provides an
// in-memory implementation for tests.
package store
