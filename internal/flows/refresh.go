package flows

import (
	"context"
	"time"

	"github.com/vigil-auth/vigil/token"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	// RefreshFailureAccessStillValid: the caller presented an access token
	// that has not expired yet, so there is nothing to refresh.
	RefreshFailureAccessStillValid
	// RefreshFailureRevoked: the refresh token is on the blacklist - replay
	// of an already-exchanged token.
	RefreshFailureRevoked
	// RefreshFailureDecode: the refresh token is expired, malformed, or
	// carries a bad signature.
	RefreshFailureDecode
	// RefreshFailureWrongType: the token decoded fine but is not a refresh
	// token.
	RefreshFailureWrongType
	// RefreshFailurePrincipalNotFound: the subject no longer resolves.
	RefreshFailurePrincipalNotFound
	// RefreshFailureInactive: the account exists but is disabled.
	RefreshFailureInactive
	// RefreshFailureIssue: minting the replacement token(s) failed.
	RefreshFailureIssue
	// RefreshFailureStore: the revocation store failed.
	RefreshFailureStore
)

// RefreshPrincipal is the account view the refresh flow needs.
type RefreshPrincipal struct {
	Subject  string
	Username string
	Active   bool
}

// RefreshRevocations is the slice of the revocation store the flow touches.
type RefreshRevocations interface {
	IsRevoked(ctx context.Context, tokenStr string) (bool, error)
	Revoke(ctx context.Context, tokenStr string, purpose token.Purpose, expiresAt time.Time, manual bool) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Now              func() time.Time
	Decode           func(string) (token.ClaimSet, error)
	UnverifiedExpiry func(string) (time.Time, bool)
	FindPrincipal    func(context.Context, string) (RefreshPrincipal, bool, error)
	IssueAccess      func(subject, username string) (string, error)
	IssueRefresh     func(subject, username string) (string, error)
	Revocations      RefreshRevocations
	// RotateOnUse mints a fresh refresh token per exchange. When false the
	// presented token is echoed back even though it has just been revoked,
	// making each refresh token good for exactly one exchange.
	RotateOnUse bool
	Warn        func(string, ...any)
}

// RefreshResult carries either the issued token pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	Subject      string
	Username     string
	AccessToken  string
	RefreshToken string
}

// RunRefresh executes the refresh exchange: guard against refreshing while
// the access token is still live, reject blacklisted tokens, decode and
// type-check the refresh token, resolve the principal, mint the new access
// token, and finally revoke the presented refresh token so it cannot be
// exchanged twice.
func RunRefresh(ctx context.Context, refreshToken, accessToken string, deps RefreshDeps) RefreshResult {
	// An attached access token that still verifies and has time left means
	// there is nothing to refresh. A malformed or expired access token is
	// the expected case and falls through. Nothing is consulted or minted
	// before this guard.
	if accessToken != "" {
		if cs, err := deps.Decode(accessToken); err == nil {
			if cs.TokenPurpose() == token.PurposeAccess && deps.Now().Before(cs.Expiry()) {
				return RefreshResult{Failure: RefreshFailureAccessStillValid}
			}
		}
	}

	revoked, err := deps.Revocations.IsRevoked(ctx, refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}
	if revoked {
		return RefreshResult{Failure: RefreshFailureRevoked}
	}

	cs, err := deps.Decode(refreshToken)
	if err != nil {
		deps.bestEffortRevoke(ctx, refreshToken)
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}

	claims, ok := cs.(token.RefreshClaims)
	if !ok {
		return RefreshResult{Failure: RefreshFailureWrongType}
	}

	principal, found, err := deps.FindPrincipal(ctx, claims.Subject)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}
	if !found {
		return RefreshResult{Failure: RefreshFailurePrincipalNotFound, Subject: claims.Subject}
	}
	if !principal.Active {
		return RefreshResult{Failure: RefreshFailureInactive, Subject: principal.Subject}
	}

	access, err := deps.IssueAccess(claims.Subject, claims.Username)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, Subject: claims.Subject}
	}

	nextRefresh := refreshToken
	if deps.RotateOnUse {
		nextRefresh, err = deps.IssueRefresh(claims.Subject, claims.Username)
		if err != nil {
			return RefreshResult{Failure: RefreshFailureIssue, Err: err, Subject: claims.Subject}
		}
	}

	// The exchanged token becomes single-use. If the caller aborts after
	// this commit, a retry with the same token fails the blacklist check
	// above and the client re-authenticates.
	if err := deps.Revocations.Revoke(ctx, refreshToken, token.PurposeRefresh, claims.ExpiresAt, false); err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err, Subject: claims.Subject}
	}

	return RefreshResult{
		Subject:      claims.Subject,
		Username:     claims.Username,
		AccessToken:  access,
		RefreshToken: nextRefresh,
	}
}

// bestEffortRevoke records an undecodable refresh token on the blacklist
// using its unverified exp claim, pre-empting clock-skew replay. Every
// secondary failure is swallowed: the primary decode error is the one the
// caller must see.
func (deps *RefreshDeps) bestEffortRevoke(ctx context.Context, refreshToken string) {
	exp, ok := deps.UnverifiedExpiry(refreshToken)
	if !ok {
		return
	}
	if err := deps.Revocations.Revoke(ctx, refreshToken, token.PurposeRefresh, exp, false); err != nil && deps.Warn != nil {
		deps.Warn("vigil: best-effort refresh token revocation failed", "error", err)
	}
}
