// Package vigil issues, verifies, refreshes, and revokes signed credential
// tokens for a routing layer that owns the HTTP surface.
//
// Four token purposes share one signing key and one wire format: access,
// refresh, email_verification, and password_reset. Access tokens are
// verified statelessly. The other three purposes are revocable: refresh
// tokens become single-use through post-exchange revocation, and the two
// email-delivered purposes are consumed exactly once.
//
// # Entry points
//
//   - [New] builds an [Engine] from a [Config], a [PrincipalStore], and a
//     [revocation.Store].
//   - [Engine.IssueSessionTokens] mints an access/refresh pair after the
//     caller has authenticated the principal.
//   - [Engine.Authenticate] verifies an access token.
//   - [Engine.RefreshSession] exchanges a refresh token for a new pair.
//   - [Engine.RequestEmailVerification], [Engine.ConsumeEmailVerification],
//     [Engine.RequestPasswordReset], and [Engine.ConsumePasswordReset]
//     drive the single-use email flows.
//   - [Engine.RevokeToken] blacklists a token ahead of its expiry.
//
// # Architecture boundaries
//
// The engine is transport-agnostic. It never reads HTTP requests; callers
// pass raw token strings and attach request metadata through
// [WithClientIP]. [HTTPStatus] maps engine errors to response codes so the
// routing layer does not interpret sentinel errors itself.
package vigil
