package vigil

import (
	"context"
	"errors"

	"github.com/vigil-auth/vigil/token"
)

// AuthOption tightens a single Authenticate call.
type AuthOption func(*authOptions)

type authOptions struct {
	requireVerified bool
}

// RequireVerified rejects access tokens whose principal has not verified
// their email, mapping to 403.
func RequireVerified() AuthOption {
	return func(o *authOptions) {
		o.requireVerified = true
	}
}

// IssueSessionTokens mints an access/refresh pair for a principal the
// caller has already authenticated. The engine does not check credentials
// here; password verification happens before this call, in the routing
// layer or through [Engine.VerifyPassword].
func (e *Engine) IssueSessionTokens(ctx context.Context, principal Principal) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}
	if !principal.Active {
		e.emitAudit(ctx, auditEventPairIssued, false, principal.SubjectID(), "", ErrAccountInactive, nil)
		return TokenPair{}, ErrAccountInactive
	}

	access, refresh, err := e.issuer.Pair(principal.SubjectID(), principal.Username)
	if err != nil {
		e.emitAudit(ctx, auditEventPairIssued, false, principal.SubjectID(), "", ErrSigning, nil)
		return TokenPair{}, ErrSigning
	}

	e.metrics.Inc(MetricPairIssued)
	e.emitAudit(ctx, auditEventPairIssued, true, principal.SubjectID(), "", nil, nil)

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
	}, nil
}

// Authenticate verifies an access token and resolves its principal.
// Verification is stateless: signature, expiry, and purpose come from the
// token alone; only the principal lookup touches a store.
func (e *Engine) Authenticate(ctx context.Context, accessToken string, opts ...AuthOption) (Session, error) {
	if e == nil {
		return Session{}, ErrEngineNotReady
	}

	start := e.now()
	session, err := e.authenticate(ctx, accessToken, opts...)
	e.metrics.Observe(MetricAuthenticateLatency, e.now().Sub(start))

	subject := ""
	if session.Principal.ID != 0 {
		subject = session.Principal.SubjectID()
	}

	if err != nil {
		e.metrics.Inc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, subject, string(token.PurposeAccess), err, nil)
		return Session{}, err
	}

	e.metrics.Inc(MetricAuthenticateSuccess)
	e.emitAudit(ctx, auditEventAuthenticateSuccess, true, subject, string(token.PurposeAccess), nil, nil)
	return session, nil
}

func (e *Engine) authenticate(ctx context.Context, accessToken string, opts ...AuthOption) (Session, error) {
	var options authOptions
	for _, opt := range opts {
		opt(&options)
	}

	cs, err := e.codec.Decode(accessToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return Session{}, ErrTokenExpired
		}
		return Session{}, ErrTokenInvalid
	}

	claims, ok := cs.(token.AccessClaims)
	if !ok {
		return Session{}, ErrWrongTokenType
	}

	principal, found, err := e.resolvePrincipal(ctx, claims.Subject)
	if err != nil {
		return Session{}, withStatusInternal(ErrStoreUnavailable)
	}
	if !found {
		return Session{}, ErrPrincipalNotFound
	}
	if !principal.Active {
		return Session{Principal: principal}, ErrAccountInactive
	}
	if options.requireVerified && !principal.Verified {
		return Session{Principal: principal}, ErrAccountUnverified
	}

	return Session{Principal: principal, TokenID: claims.ID}, nil
}

// VerifyPassword checks a plaintext password against a stored PHC hash.
// Exposed so callers that keep credentials next to the principal store can
// reuse the engine's Argon2id parameters.
func (e *Engine) VerifyPassword(plaintext, storedHash string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	return e.hasher.Verify(plaintext, storedHash)
}

// HashPassword validates a new password against the configured policy and
// returns its PHC hash. Policy violations surface as a [ValidationError]
// on the "password" field.
func (e *Engine) HashPassword(plaintext string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if err := e.config.Password.Policy.Validate(plaintext); err != nil {
		return "", NewValidationError("password", err.Error())
	}
	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		return "", err
	}
	return hash, nil
}
