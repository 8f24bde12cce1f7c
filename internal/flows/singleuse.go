package flows

import (
	"context"
	"time"

	"github.com/vigil-auth/vigil/token"
)

// ConsumeFailureKind classifies single-use consumption failures.
type ConsumeFailureKind int

const (
	ConsumeFailureNone ConsumeFailureKind = iota
	// ConsumeFailureRevoked: the token was already consumed (or manually
	// revoked).
	ConsumeFailureRevoked
	// ConsumeFailureDecode: expired, malformed, bad signature, or wrong
	// purpose. Purpose mismatch is reported exactly like a malformed
	// token so the reset endpoint never confirms what kind of token the
	// caller holds.
	ConsumeFailureDecode
	// ConsumeFailurePrincipalNotFound: the subject no longer resolves.
	ConsumeFailurePrincipalNotFound
	// ConsumeFailureConsume: the consume callback rejected the action (for
	// password reset, typically a policy violation). The token is NOT
	// revoked in this case, so the link stays usable for a retry.
	ConsumeFailureConsume
	// ConsumeFailureStore: the revocation or principal store failed.
	ConsumeFailureStore
)

// ConsumePrincipal is the account view handed to the consume callback.
type ConsumePrincipal struct {
	Subject  string
	Username string
	Active   bool
	Verified bool
}

// ConsumeRevocations is the slice of the revocation store the flow touches.
type ConsumeRevocations interface {
	IsRevoked(ctx context.Context, tokenStr string) (bool, error)
	Revoke(ctx context.Context, tokenStr string, purpose token.Purpose, expiresAt time.Time, manual bool) error
}

// ConsumeDeps captures single-use consumption dependencies.
type ConsumeDeps struct {
	// Purpose the presented token must carry: email verification or
	// password reset.
	Purpose          token.Purpose
	Decode           func(string) (token.ClaimSet, error)
	UnverifiedExpiry func(string) (time.Time, bool)
	FindPrincipal    func(context.Context, string) (ConsumePrincipal, bool, error)
	// Consume performs the state change the token authorizes: flipping the
	// verified flag, or validating and storing a new credential hash.
	Consume     func(context.Context, ConsumePrincipal) error
	Revocations ConsumeRevocations
	Warn        func(string, ...any)
}

// ConsumeResult carries the outcome of a single-use consumption.
type ConsumeResult struct {
	Failure ConsumeFailureKind
	Err     error
	Subject string
}

// RunConsume executes the shared single-use protocol: reject blacklisted
// tokens, decode with purpose enforcement, resolve the principal, perform
// the consume callback, and only then revoke the token. Revoking after the
// callback means a failed consumption (say, a weak replacement password)
// leaves the link usable for a retry.
func RunConsume(ctx context.Context, rawToken string, deps ConsumeDeps) ConsumeResult {
	revoked, err := deps.Revocations.IsRevoked(ctx, rawToken)
	if err != nil {
		return ConsumeResult{Failure: ConsumeFailureStore, Err: err}
	}
	if revoked {
		return ConsumeResult{Failure: ConsumeFailureRevoked}
	}

	cs, err := deps.Decode(rawToken)
	if err != nil {
		deps.bestEffortRevoke(ctx, rawToken)
		return ConsumeResult{Failure: ConsumeFailureDecode, Err: err}
	}
	if cs.TokenPurpose() != deps.Purpose {
		return ConsumeResult{Failure: ConsumeFailureDecode}
	}

	principal, found, err := deps.FindPrincipal(ctx, cs.SubjectID())
	if err != nil {
		return ConsumeResult{Failure: ConsumeFailureStore, Err: err}
	}
	if !found {
		return ConsumeResult{Failure: ConsumeFailurePrincipalNotFound, Subject: cs.SubjectID()}
	}

	if err := deps.Consume(ctx, principal); err != nil {
		return ConsumeResult{Failure: ConsumeFailureConsume, Err: err, Subject: principal.Subject}
	}

	if err := deps.Revocations.Revoke(ctx, rawToken, deps.Purpose, cs.Expiry(), false); err != nil {
		return ConsumeResult{Failure: ConsumeFailureStore, Err: err, Subject: principal.Subject}
	}

	return ConsumeResult{Subject: principal.Subject}
}

// bestEffortRevoke mirrors the refresh flow: an undecodable single-use token
// still gets a blacklist record when its exp claim is recoverable, and any
// secondary error is swallowed so the primary decode failure is what the
// caller sees.
func (deps *ConsumeDeps) bestEffortRevoke(ctx context.Context, rawToken string) {
	exp, ok := deps.UnverifiedExpiry(rawToken)
	if !ok {
		return
	}
	if err := deps.Revocations.Revoke(ctx, rawToken, deps.Purpose, exp, false); err != nil && deps.Warn != nil {
		deps.Warn("vigil: best-effort single-use token revocation failed", "error", err)
	}
}
