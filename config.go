package vigil

import (
	"errors"
	"time"

	"github.com/vigil-auth/vigil/internal/audit"
	"github.com/vigil-auth/vigil/password"
)

// Config configures the Engine. Instances are read at construction time
// and treated as immutable afterwards.
type Config struct {
	JWT        JWTConfig
	Refresh    RefreshConfig
	Password   PasswordConfig
	Revocation RevocationConfig
	Mail       MailConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the signing key and per-purpose lifetimes. All four
// purposes are signed with the same key and method.
type JWTConfig struct {
	Secret               string
	SigningMethod        string // "HS256" (default), "HS384", "HS512"
	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	EmailVerificationTTL time.Duration
	PasswordResetTTL     time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig controls the refresh exchange.
type RefreshConfig struct {
	// RotateOnUse mints a fresh refresh token on every exchange. When
	// false the presented token is echoed back in the response even
	// though it has just been revoked, so each refresh token is good for
	// exactly one exchange and the client must keep the newest pair.
	RotateOnUse bool
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id cost parameters and the policy applied to
// replacement passwords. Memory is in KiB.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	Policy      password.Policy
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig controls blacklist maintenance.
type RevocationConfig struct {
	// SweepInterval is how often the engine deletes expired blacklist
	// entries. Zero disables the background sweeper; callers can still
	// invoke [Engine.Sweep] themselves. Redis-backed stores prune via key
	// TTLs and need no sweeping either way.
	SweepInterval time.Duration
}

/*
====================================
MAIL CONFIG
====================================
*/

// MailConfig controls the verification and reset emails. When Enabled is
// false the Request operations still mint and return tokens, they just
// skip delivery; useful when the caller owns email composition.
type MailConfig struct {
	Enabled bool
	// BaseURL is the routing layer's public origin, without trailing
	// slash. Links are BaseURL + path + "?token=" + token.
	BaseURL          string
	VerificationPath string
	ResetPath        string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig = audit.Config

// MetricsConfig controls the engine counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. The JWT secret has no
// default and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod:        "HS256",
			AccessTTL:            30 * time.Minute,
			RefreshTTL:           7 * 24 * time.Hour,
			EmailVerificationTTL: 24 * time.Hour,
			PasswordResetTTL:     1 * time.Hour,
		},
		Refresh: RefreshConfig{
			RotateOnUse: false,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			Policy:      password.DefaultPolicy(),
		},
		Revocation: RevocationConfig{
			SweepInterval: 0,
		},
		Mail: MailConfig{
			Enabled:          false,
			VerificationPath: "/verify-email",
			ResetPath:        "/reset-password",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func (c Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("vigil: JWT secret must be set")
	}
	if c.Mail.Enabled && c.Mail.BaseURL == "" {
		return errors.New("vigil: mail base URL must be set when mail is enabled")
	}
	return nil
}
