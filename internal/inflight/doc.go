// Package inflight provides a per-key guard that collapses concurrent
// duplicate work into a single execution.
//
// The dispatcher uses it so that concurrent first-contact events for the
// same brand-new conversation share one directory lookup instead of each
// issuing their own network call. Unlike a dedupe cache, the guard holds no
// history: a key is forgotten the moment its execution completes.
package inflight
