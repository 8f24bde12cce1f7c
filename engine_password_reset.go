package vigil

import (
	"context"
	"fmt"

	"github.com/vigil-auth/vigil/internal/flows"
	"github.com/vigil-auth/vigil/mailer"
	"github.com/vigil-auth/vigil/token"
)

// RequestPasswordReset mints a single-use password reset token for the
// principal and, when mail is enabled, delivers the reset link. Inactive
// accounts are refused; the routing layer is expected to collapse every
// outcome into the same generic response so callers cannot probe which
// emails exist.
func (e *Engine) RequestPasswordReset(ctx context.Context, principalID int64) (string, error) {
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

	tok, err := e.issuer.PasswordResetToken(principal.SubjectID())
	if err != nil {
		return "", ErrSigning
	}

	if e.config.Mail.Enabled {
		link := e.mailLink(e.config.Mail.ResetPath, tok)
		msg := mailer.Message{
			To:      principal.Email,
			Subject: "Reset your password",
			Text:    fmt.Sprintf("Hi %s,\n\nA password reset was requested for your account. Open the link below to choose a new password. The link expires in %s and can be used once.\n\nIf you did not request this, ignore this email.\n\n%s\n", principal.Username, e.config.JWT.PasswordResetTTL, link),
		}
		if err := e.mail.Send(ctx, msg); err != nil {
			e.warn("reset email delivery failed", "error", err)
			return "", withStatusInternal(ErrMailUnavailable)
		}
	}

	e.metrics.Inc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, principal.SubjectID(), string(token.PurposePasswordReset), nil, nil)
	return tok, nil
}

// ConsumePasswordReset verifies a single-use reset token, stores the new
// credential, and revokes the token. The token is revoked only after the
// new password passes policy and the hash is persisted: a rejected
// replacement password leaves the link usable for another attempt, while
// a successful reset burns it.
func (e *Engine) ConsumePasswordReset(ctx context.Context, rawToken, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	result := flows.RunConsume(ctx, rawToken, flows.ConsumeDeps{
		Purpose:          token.PurposePasswordReset,
		Decode:           e.codec.Decode,
		UnverifiedExpiry: e.codec.UnverifiedExpiry,
		FindPrincipal:    e.findConsumePrincipal,
		Consume: func(ctx context.Context, p flows.ConsumePrincipal) error {
			if err := e.config.Password.Policy.Validate(newPassword); err != nil {
				return NewValidationError("new_password", err.Error())
			}
			hash, err := e.hasher.Hash(newPassword)
			if err != nil {
				return withStatusInternal(ErrStoreUnavailable)
			}
			id, err := parseSubject(p.Subject)
			if err != nil {
				return ErrPrincipalNotFound
			}
			if err := e.principals.SetPasswordHash(ctx, id, hash); err != nil {
				return withStatusInternal(ErrStoreUnavailable)
			}
			return nil
		},
		Revocations: storeRevocations{e.revocations},
		Warn:        e.warn,
	})

	if err := e.mapConsumeFailure(ctx, result, token.PurposePasswordReset); err != nil {
		return err
	}

	e.metrics.Inc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, result.Subject, string(token.PurposePasswordReset), nil, nil)
	return nil
}
