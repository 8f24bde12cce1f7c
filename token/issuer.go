package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TTLs configures the validity window per token purpose. Every field is
// required and must be positive: a zero TTL would mint an already-expired
// credential, so it is rejected at construction instead of defaulted.
type TTLs struct {
	Access            time.Duration
	Refresh           time.Duration
	EmailVerification time.Duration
	PasswordReset     time.Duration
}

// Issuer builds claim sets for the four token purposes and signs them
// through a [Codec].
type Issuer struct {
	codec *Codec
	ttl   TTLs
	now   func() time.Time
}

// NewIssuer validates the TTL configuration and returns a ready issuer.
func NewIssuer(codec *Codec, ttl TTLs) (*Issuer, error) {
	if codec == nil {
		return nil, errors.New("token: issuer requires a codec")
	}
	if err := validateTTLs(ttl); err != nil {
		return nil, err
	}
	return &Issuer{codec: codec, ttl: ttl, now: time.Now}, nil
}

func validateTTLs(ttl TTLs) error {
	for _, f := range []struct {
		name string
		d    time.Duration
	}{
		{"access", ttl.Access},
		{"refresh", ttl.Refresh},
		{"email verification", ttl.EmailVerification},
		{"password reset", ttl.PasswordReset},
	} {
		if f.d <= 0 {
			return fmt.Errorf("token: %s TTL must be positive, got %v", f.name, f.d)
		}
	}
	return nil
}

// AccessToken mints a session access token for the given subject.
func (i *Issuer) AccessToken(subject, username string) (string, error) {
	return i.codec.Encode(AccessClaims{
		Subject:   subject,
		Username:  username,
		ID:        uuid.NewString(),
		ExpiresAt: i.now().Add(i.ttl.Access),
	})
}

// RefreshToken mints a session refresh token for the given subject.
func (i *Issuer) RefreshToken(subject, username string) (string, error) {
	return i.codec.Encode(RefreshClaims{
		Subject:   subject,
		Username:  username,
		ID:        uuid.NewString(),
		ExpiresAt: i.now().Add(i.ttl.Refresh),
	})
}

// EmailVerificationToken mints a single-use email verification token.
func (i *Issuer) EmailVerificationToken(subject string) (string, error) {
	return i.codec.Encode(EmailVerificationClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		ExpiresAt: i.now().Add(i.ttl.EmailVerification),
	})
}

// PasswordResetToken mints a single-use password reset token.
func (i *Issuer) PasswordResetToken(subject string) (string, error) {
	return i.codec.Encode(PasswordResetClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		ExpiresAt: i.now().Add(i.ttl.PasswordReset),
	})
}

// Pair mints the access and refresh tokens for one session in a single call.
func (i *Issuer) Pair(subject, username string) (access, refresh string, err error) {
	access, err = i.AccessToken(subject, username)
	if err != nil {
		return "", "", err
	}
	refresh, err = i.RefreshToken(subject, username)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
