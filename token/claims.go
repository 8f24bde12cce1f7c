package token

import "time"

// Purpose is the enumerated intended use of a token. A decoded claim set's
// purpose is the sole source of truth for what the token may be used for;
// signature validity alone is never sufficient.
type Purpose string

const (
	// PurposeAccess marks short-lived session access tokens.
	PurposeAccess Purpose = "access"
	// PurposeRefresh marks tokens exchanged for new access tokens.
	PurposeRefresh Purpose = "refresh"
	// PurposeEmailVerification marks single-use email verification tokens.
	PurposeEmailVerification Purpose = "email_verification"
	// PurposePasswordReset marks single-use password reset tokens.
	PurposePasswordReset Purpose = "password_reset"
)

// Valid reports whether p is one of the four known purposes.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeAccess, PurposeRefresh, PurposeEmailVerification, PurposePasswordReset:
		return true
	}
	return false
}

// ClaimSet is the common view over the four purpose-specific claim types.
type ClaimSet interface {
	// TokenPurpose returns the purpose discriminant.
	TokenPurpose() Purpose
	// SubjectID returns the principal identifier in string form.
	SubjectID() string
	// Expiry returns the absolute expiration time.
	Expiry() time.Time
	// TokenID returns the jti claim, unique per minted token.
	TokenID() string
}

// AccessClaims is the payload of a session access token.
type AccessClaims struct {
	Subject   string
	Username  string
	ID        string
	ExpiresAt time.Time
}

func (c AccessClaims) TokenPurpose() Purpose { return PurposeAccess }
func (c AccessClaims) SubjectID() string     { return c.Subject }
func (c AccessClaims) Expiry() time.Time     { return c.ExpiresAt }
func (c AccessClaims) TokenID() string       { return c.ID }

// RefreshClaims is the payload of a session refresh token. The username is
// echoed so a refreshed access token carries the same identity claims
// without a principal lookup at mint time.
type RefreshClaims struct {
	Subject   string
	Username  string
	ID        string
	ExpiresAt time.Time
}

func (c RefreshClaims) TokenPurpose() Purpose { return PurposeRefresh }
func (c RefreshClaims) SubjectID() string     { return c.Subject }
func (c RefreshClaims) Expiry() time.Time     { return c.ExpiresAt }
func (c RefreshClaims) TokenID() string       { return c.ID }

// EmailVerificationClaims carries only the subject, keeping tokens embedded
// in email links short.
type EmailVerificationClaims struct {
	Subject   string
	ID        string
	ExpiresAt time.Time
}

func (c EmailVerificationClaims) TokenPurpose() Purpose { return PurposeEmailVerification }
func (c EmailVerificationClaims) SubjectID() string     { return c.Subject }
func (c EmailVerificationClaims) Expiry() time.Time     { return c.ExpiresAt }
func (c EmailVerificationClaims) TokenID() string       { return c.ID }

// PasswordResetClaims carries only the subject, like
// [EmailVerificationClaims].
type PasswordResetClaims struct {
	Subject   string
	ID        string
	ExpiresAt time.Time
}

func (c PasswordResetClaims) TokenPurpose() Purpose { return PurposePasswordReset }
func (c PasswordResetClaims) SubjectID() string     { return c.Subject }
func (c PasswordResetClaims) Expiry() time.Time     { return c.ExpiresAt }
func (c PasswordResetClaims) TokenID() string       { return c.ID }
