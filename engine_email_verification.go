package vigil

import (
	"context"
	"fmt"

	"github.com/vigil-auth/vigil/internal/flows"
	"github.com/vigil-auth/vigil/mailer"
	"github.com/vigil-auth/vigil/token"
)

// RequestEmailVerification mints a single-use email verification token
// for the principal and, when mail is enabled, delivers the verification
// link. The token is returned either way so callers that own email
// composition can deliver it themselves.
func (e *Engine) RequestEmailVerification(ctx context.Context, principalID int64) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	principal, found, err := e.principals.FindByID(ctx, principalID)
	if err != nil {
		return "", withStatusInternal(ErrStoreUnavailable)
	}
	if !found {
		return "", ErrPrincipalNotFound
	}
	if !principal.Active {
		return "", ErrAccountInactive
	}
	if principal.Verified {
		return "", NewValidationError("email", "already verified")
	}

	tok, err := e.issuer.EmailVerificationToken(principal.SubjectID())
	if err != nil {
		return "", ErrSigning
	}

	if e.config.Mail.Enabled {
		link := e.mailLink(e.config.Mail.VerificationPath, tok)
		msg := mailer.Message{
			To:      principal.Email,
			Subject: "Verify your email address",
			Text:    fmt.Sprintf("Hi %s,\n\nVerify your email address by opening the link below. The link expires in %s.\n\n%s\n", principal.Username, e.config.JWT.EmailVerificationTTL, link),
		}
		if err := e.mail.Send(ctx, msg); err != nil {
			e.warn("verification email delivery failed", "error", err)
			return "", withStatusInternal(ErrMailUnavailable)
		}
	}

	e.metrics.Inc(MetricEmailVerificationRequest)
	e.emitAudit(ctx, auditEventEmailVerificationRequest, true, principal.SubjectID(), string(token.PurposeEmailVerification), nil, nil)
	return tok, nil
}

// ConsumeEmailVerification verifies a single-use verification token,
// flips the principal's verified flag, and revokes the token. A second
// presentation of the same token fails with [ErrTokenRevoked].
func (e *Engine) ConsumeEmailVerification(ctx context.Context, rawToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	result := flows.RunConsume(ctx, rawToken, flows.ConsumeDeps{
		Purpose:          token.PurposeEmailVerification,
		Decode:           e.codec.Decode,
		UnverifiedExpiry: e.codec.UnverifiedExpiry,
		FindPrincipal:    e.findConsumePrincipal,
		Consume: func(ctx context.Context, p flows.ConsumePrincipal) error {
			id, err := parseSubject(p.Subject)
			if err != nil {
				return ErrPrincipalNotFound
			}
			if err := e.principals.SetVerified(ctx, id, true); err != nil {
				return withStatusInternal(ErrStoreUnavailable)
			}
			return nil
		},
		Revocations: storeRevocations{e.revocations},
		Warn:        e.warn,
	})

	if err := e.mapConsumeFailure(ctx, result, token.PurposeEmailVerification); err != nil {
		return err
	}

	e.metrics.Inc(MetricEmailVerificationSuccess)
	e.emitAudit(ctx, auditEventEmailVerificationConfirm, true, result.Subject, string(token.PurposeEmailVerification), nil, nil)
	return nil
}

func (e *Engine) findConsumePrincipal(ctx context.Context, subject string) (flows.ConsumePrincipal, bool, error) {
	principal, found, err := e.resolvePrincipal(ctx, subject)
	if err != nil || !found {
		return flows.ConsumePrincipal{}, found, err
	}
	return flows.ConsumePrincipal{
		Subject:  principal.SubjectID(),
		Username: principal.Username,
		Active:   principal.Active,
		Verified: principal.Verified,
	}, true, nil
}

// mapConsumeFailure converts single-use flow failures into engine errors
// and records the failure counter and audit event for the given purpose.
func (e *Engine) mapConsumeFailure(ctx context.Context, result flows.ConsumeResult, purpose token.Purpose) error {
	var err error

	switch result.Failure {
	case flows.ConsumeFailureNone:
		return nil
	case flows.ConsumeFailureRevoked:
		err = ErrTokenRevoked
	case flows.ConsumeFailureDecode:
		err = ErrTokenInvalid
	case flows.ConsumeFailurePrincipalNotFound:
		err = ErrPrincipalNotFound
	case flows.ConsumeFailureConsume:
		// The consume callback's error passes through untouched so
		// ValidationError field detail survives to the routing layer.
		err = result.Err
	case flows.ConsumeFailureStore:
		err = withStatusInternal(ErrStoreUnavailable)
	default:
		err = withStatusInternal(ErrStoreUnavailable)
	}

	event := auditEventEmailVerificationConfirm
	counter := MetricEmailVerificationFailure
	if purpose == token.PurposePasswordReset {
		event = auditEventPasswordResetConfirm
		counter = MetricPasswordResetFailure
	}
	e.metrics.Inc(counter)
	e.emitAudit(ctx, event, false, result.Subject, string(purpose), err, nil)

	return err
}

func (e *Engine) mailLink(path, tok string) string {
	return e.config.Mail.BaseURL + path + "?token=" + tok
}
