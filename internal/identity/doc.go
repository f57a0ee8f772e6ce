// Package identity resolves inbound conversation members to stable
// identities.
//
// AccountID derives the pseudonymous account identifier from a conversation
// identifier as a pure function, so concurrent first-contact events always
// agree on the ID without coordination.
//
// Resolver performs the external directory lookup: a client-credentials
// OAuth exchange against the channel's token endpoint, then a bearer-
// authenticated member-details query under the per-client base URL. Both
// legs are non-fatal; callers degrade to an absent email on failure.
package identity
