// Package token implements the stateless half of the credential system:
// signing and verification of compact JWT claim sets for the four token
// purposes (access, refresh, email verification, password reset).
//
// # Architecture boundaries
//
// This package is pure: it performs no I/O and holds no mutable state after
// construction. Revocation, principal lookup, and every other stateful
// concern live elsewhere. That separation is what keeps the cryptographic
// half testable without a datastore.
//
// # What this package must NOT do
//
//   - Consult a revocation store or any other backend.
//   - Treat [Codec.UnverifiedExpiry] output as proof of anything. It exists
//     only so callers can record an expiry for an already-rejected token.
package token
