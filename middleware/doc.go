// Package middleware exposes HTTP middleware built on top of
// vigil.Engine authentication.
//
// # Guards
//
//   - [Guard] - verifies the bearer access token on every request.
//   - [RequireVerified] - same, additionally rejecting unverified accounts.
//
// Each guard reads the Authorization header, calls Engine.Authenticate,
// and injects the resolved session into the request context, where
// handlers retrieve it with [SessionFromContext].
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the Engine).
//   - Touch the revocation store (the Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Authenticate.
package middleware
