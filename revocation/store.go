package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/vigil-auth/vigil/token"
)

// ErrUnavailable wraps storage-layer failures. Callers treat it as a
// persistence error, never as a revocation verdict.
var ErrUnavailable = errors.New("revocation store unavailable")

// ErrPurposeNotRevocable is returned when a caller tries to record an access
// token. Access tokens are never blacklisted; their short TTL makes
// revocation unnecessary and keeping them out bounds the set's growth.
var ErrPurposeNotRevocable = errors.New("token purpose is not revocable")

// Record is one revoked token.
type Record struct {
	Token     string
	Purpose   token.Purpose
	Manual    bool // administrative revocation, as opposed to consumption
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the underlying token has passed its own expiry.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Store is the revocation set. Implementations must be safe for concurrent
// use from multiple goroutines and, for the shared backends, from multiple
// processes.
type Store interface {
	// IsRevoked reports whether tokenStr has been revoked.
	IsRevoked(ctx context.Context, tokenStr string) (bool, error)

	// Revoke records tokenStr as revoked. Revoking an already-revoked token
	// is a no-op that returns the existing record.
	Revoke(ctx context.Context, tokenStr string, purpose token.Purpose, expiresAt time.Time, manual bool) (Record, error)

	// Sweep deletes records whose token expiry has passed and returns the
	// number removed. Safe to call concurrently with Revoke/IsRevoked.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

func checkPurpose(p token.Purpose) error {
	switch p {
	case token.PurposeRefresh, token.PurposeEmailVerification, token.PurposePasswordReset:
		return nil
	default:
		return ErrPurposeNotRevocable
	}
}
