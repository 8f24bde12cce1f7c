package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by [Codec.Decode] when a token is malformed,
// carries a bad signature, or declares an unknown purpose.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpired is returned by [Codec.Decode] when a token verifies but its
// exp claim has passed. It wraps [ErrInvalidToken], so callers that do not
// care about the distinction keep working.
var ErrExpired = fmt.Errorf("%w: expired", ErrInvalidToken)

// ErrSigning is returned by [Codec.Encode] when the token cannot be signed.
// It indicates codec misconfiguration, not bad input.
var ErrSigning = errors.New("token signing failed")

// Config holds the signing secret and algorithm for a [Codec]. Both are
// required; there are no defaults.
type Config struct {
	Secret    string
	Algorithm string // "HS256", "HS384", or "HS512"
}

// Codec signs and verifies claim sets. It is stateless and safe for
// concurrent use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
}

// wireClaims is the JSON shape actually encoded into tokens. The purpose
// travels under the "type" claim key.
type wireClaims struct {
	Username  string  `json:"username,omitempty"`
	TokenType Purpose `json:"type"`
	jwt.RegisteredClaims
}

// NewCodec validates the configuration and returns a ready codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token: signing secret is required")
	}

	var method jwt.SigningMethod
	switch strings.ToUpper(strings.TrimSpace(cfg.Algorithm)) {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	case "":
		return nil, errors.New("token: signing algorithm is required")
	default:
		return nil, fmt.Errorf("token: unsupported signing algorithm %q", cfg.Algorithm)
	}

	return &Codec{secret: []byte(cfg.Secret), method: method}, nil
}

// Encode signs cs and returns the compact token string.
func (c *Codec) Encode(cs ClaimSet) (string, error) {
	wc := wireClaims{
		TokenType: cs.TokenPurpose(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cs.SubjectID(),
			ID:        cs.TokenID(),
			ExpiresAt: jwt.NewNumericDate(cs.Expiry()),
		},
	}
	switch v := cs.(type) {
	case AccessClaims:
		wc.Username = v.Username
	case RefreshClaims:
		wc.Username = v.Username
	}

	signed, err := jwt.NewWithClaims(c.method, wc).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of raw and returns the typed
// claim set. Any parse, signature, expiry, or purpose failure is reported as
// [ErrInvalidToken]; the underlying cause is wrapped for logging but callers
// must branch on the sentinel only.
func (c *Codec) Decode(raw string) (ClaimSet, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
	)

	var wc wireClaims
	tok, err := parser.ParseWithClaims(raw, &wc, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}

	return wc.toClaimSet()
}

// UnverifiedExpiry parses raw WITHOUT checking signature or expiry and
// returns the exp claim. It exists for one job: recovering an expiry for an
// already-rejected token so a best-effort revocation record can be written.
// It must never feed an authorization decision; nothing but the timestamp is
// returned, so there is no claim set to misuse.
func (c *Codec) UnverifiedExpiry(raw string) (time.Time, bool) {
	var wc wireClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &wc); err != nil {
		return time.Time{}, false
	}
	if wc.ExpiresAt == nil {
		return time.Time{}, false
	}
	return wc.ExpiresAt.Time, true
}

func (wc *wireClaims) toClaimSet() (ClaimSet, error) {
	if wc.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	exp := wc.ExpiresAt.Time

	switch wc.TokenType {
	case PurposeAccess:
		return AccessClaims{Subject: wc.Subject, Username: wc.Username, ID: wc.RegisteredClaims.ID, ExpiresAt: exp}, nil
	case PurposeRefresh:
		return RefreshClaims{Subject: wc.Subject, Username: wc.Username, ID: wc.RegisteredClaims.ID, ExpiresAt: exp}, nil
	case PurposeEmailVerification:
		return EmailVerificationClaims{Subject: wc.Subject, ID: wc.RegisteredClaims.ID, ExpiresAt: exp}, nil
	case PurposePasswordReset:
		return PasswordResetClaims{Subject: wc.Subject, ID: wc.RegisteredClaims.ID, ExpiresAt: exp}, nil
	default:
		return nil, fmt.Errorf("%w: unknown token type %q", ErrInvalidToken, wc.TokenType)
	}
}
