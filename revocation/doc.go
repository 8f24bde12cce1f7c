// Package revocation persists the set of revoked token strings. It is the
// only stateful actor in the token lifecycle: the codec stays pure and this
// package stays a key-value set, with no signature or claim validation.
//
// # Contract
//
// [Store.Revoke] is an idempotent insert-or-fetch keyed by the full token
// string. Concurrent callers revoking the same token must converge on a
// single record without error; the implementations here lean on atomic
// storage primitives (SET NX, INSERT ... ON CONFLICT DO NOTHING) rather than
// in-process locking across round trips.
//
// Revocation state must be immediately visible to every process, so nothing
// in this package caches lookups.
package revocation
