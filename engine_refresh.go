package vigil

import (
	"context"
	"time"

	"github.com/vigil-auth/vigil/internal/flows"
	"github.com/vigil-auth/vigil/revocation"
	"github.com/vigil-auth/vigil/token"
)

// RefreshSession exchanges a refresh token for a new access token. The
// optional accessToken is the pair's current access token: if it still
// verifies and has time left, the exchange is rejected with
// [ErrAccessStillValid] before anything else is consulted. Pass "" to
// skip the guard.
//
// The presented refresh token is revoked as the final step of a
// successful exchange, so each refresh token is good for exactly one
// exchange. A replay of an exchanged token fails with [ErrTokenRevoked].
// When rotation is disabled (the default) the response echoes the
// presented refresh token; it is already spent, and the caller is
// expected to re-authenticate once it has no exchanges left.
func (e *Engine) RefreshSession(ctx context.Context, refreshToken, accessToken string) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	result := flows.RunRefresh(ctx, refreshToken, accessToken, flows.RefreshDeps{
		Now:              e.now,
		Decode:           e.codec.Decode,
		UnverifiedExpiry: e.codec.UnverifiedExpiry,
		FindPrincipal:    e.findRefreshPrincipal,
		IssueAccess:      e.issuer.AccessToken,
		IssueRefresh:     e.issuer.RefreshToken,
		Revocations:      storeRevocations{e.revocations},
		RotateOnUse:      e.config.Refresh.RotateOnUse,
		Warn:             e.warn,
	})

	if err := e.mapRefreshFailure(ctx, result); err != nil {
		return TokenPair{}, err
	}

	e.metrics.Inc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, result.Subject, string(token.PurposeRefresh), nil, nil)

	return TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    tokenTypeBearer,
	}, nil
}

// mapRefreshFailure converts flow failure kinds into the engine's error
// surface. Refresh rejections that reveal token state map to 404 rather
// than 401: the routing layer answers "no such session" without
// disclosing whether the token was expired, revoked, or never valid.
func (e *Engine) mapRefreshFailure(ctx context.Context, result flows.RefreshResult) error {
	var err error

	switch result.Failure {
	case flows.RefreshFailureNone:
		return nil
	case flows.RefreshFailureAccessStillValid:
		err = ErrAccessStillValid
	case flows.RefreshFailureRevoked:
		err = withStatusNotFound(ErrTokenRevoked)
	case flows.RefreshFailureDecode:
		err = withStatusNotFound(ErrTokenInvalid)
	case flows.RefreshFailureWrongType:
		err = withStatusNotFound(ErrWrongTokenType)
	case flows.RefreshFailurePrincipalNotFound:
		err = withStatusNotFound(ErrPrincipalNotFound)
	case flows.RefreshFailureInactive:
		err = ErrAccountInactive
	case flows.RefreshFailureIssue:
		err = withStatusInternal(ErrSigning)
	case flows.RefreshFailureStore:
		err = withStatusInternal(ErrStoreUnavailable)
	default:
		err = withStatusInternal(ErrStoreUnavailable)
	}

	switch result.Failure {
	case flows.RefreshFailureRevoked:
		e.metrics.Inc(MetricRefreshReplayBlocked)
		e.emitAudit(ctx, auditEventRefreshReplayBlocked, false, result.Subject, string(token.PurposeRefresh), err, nil)
	case flows.RefreshFailureAccessStillValid:
		e.metrics.Inc(MetricRefreshAccessStillValid)
		e.emitAudit(ctx, auditEventRefreshFailure, false, result.Subject, string(token.PurposeRefresh), err, nil)
	default:
		e.metrics.Inc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, result.Subject, string(token.PurposeRefresh), err, nil)
	}

	return err
}

func (e *Engine) findRefreshPrincipal(ctx context.Context, subject string) (flows.RefreshPrincipal, bool, error) {
	principal, found, err := e.resolvePrincipal(ctx, subject)
	if err != nil || !found {
		return flows.RefreshPrincipal{}, found, err
	}
	return flows.RefreshPrincipal{
		Subject:  principal.SubjectID(),
		Username: principal.Username,
		Active:   principal.Active,
	}, true, nil
}

// storeRevocations narrows revocation.Store to the flow-facing interface,
// discarding the record the store returns on insert-or-fetch.
type storeRevocations struct {
	store revocation.Store
}

func (r storeRevocations) IsRevoked(ctx context.Context, tokenStr string) (bool, error) {
	return r.store.IsRevoked(ctx, tokenStr)
}

func (r storeRevocations) Revoke(ctx context.Context, tokenStr string, purpose token.Purpose, expiresAt time.Time, manual bool) error {
	_, err := r.store.Revoke(ctx, tokenStr, purpose, expiresAt, manual)
	return err
}
