package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vigil-auth/vigil/token"
)

func consumeDeps(rev *fakeRevocations, consume func(context.Context, ConsumePrincipal) error) ConsumeDeps {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return ConsumeDeps{
		Purpose: token.PurposePasswordReset,
		Decode: func(raw string) (token.ClaimSet, error) {
			switch raw {
			case "good-reset":
				return token.PasswordResetClaims{Subject: "42", ExpiresAt: now.Add(time.Hour)}, nil
			case "verify-token":
				return token.EmailVerificationClaims{Subject: "42", ExpiresAt: now.Add(time.Hour)}, nil
			default:
				return nil, token.ErrInvalidToken
			}
		},
		UnverifiedExpiry: func(raw string) (time.Time, bool) {
			if raw == "expired-reset" {
				return now.Add(-time.Minute), true
			}
			return time.Time{}, false
		},
		FindPrincipal: func(_ context.Context, subject string) (ConsumePrincipal, bool, error) {
			if subject == "42" {
				return ConsumePrincipal{Subject: "42", Username: "alice", Active: true}, true, nil
			}
			return ConsumePrincipal{}, false, nil
		},
		Consume:     consume,
		Revocations: rev,
	}
}

func TestRunConsumeSuccessBurnsToken(t *testing.T) {
	rev := newFakeRevocations()
	consumed := 0
	deps := consumeDeps(rev, func(context.Context, ConsumePrincipal) error {
		consumed++
		return nil
	})

	result := RunConsume(context.Background(), "good-reset", deps)
	if result.Failure != ConsumeFailureNone {
		t.Fatalf("unexpected failure %d: %v", result.Failure, result.Err)
	}
	if result.Subject != "42" {
		t.Fatalf("unexpected subject %q", result.Subject)
	}
	if consumed != 1 {
		t.Fatalf("expected one consume call, got %d", consumed)
	}
	if !rev.revoked["good-reset"] {
		t.Fatal("expected consumed token to be revoked")
	}

	replay := RunConsume(context.Background(), "good-reset", deps)
	if replay.Failure != ConsumeFailureRevoked {
		t.Fatalf("expected ConsumeFailureRevoked on replay, got %d", replay.Failure)
	}
	if consumed != 1 {
		t.Fatal("replay must not reach the consume callback")
	}
}

func TestRunConsumeFailedCallbackKeepsTokenUsable(t *testing.T) {
	rev := newFakeRevocations()
	policyErr := errors.New("password too weak")
	attempts := 0
	deps := consumeDeps(rev, func(context.Context, ConsumePrincipal) error {
		attempts++
		if attempts == 1 {
			return policyErr
		}
		return nil
	})

	// First attempt: the callback rejects (weak replacement password). The
	// token must NOT be burned.
	first := RunConsume(context.Background(), "good-reset", deps)
	if first.Failure != ConsumeFailureConsume {
		t.Fatalf("expected ConsumeFailureConsume, got %d", first.Failure)
	}
	if !errors.Is(first.Err, policyErr) {
		t.Fatalf("expected callback error passed through, got %v", first.Err)
	}
	if rev.revoked["good-reset"] {
		t.Fatal("token must survive a rejected consumption")
	}

	// Retry with the same link succeeds and burns it.
	second := RunConsume(context.Background(), "good-reset", deps)
	if second.Failure != ConsumeFailureNone {
		t.Fatalf("expected retry to succeed, got %d: %v", second.Failure, second.Err)
	}
	if !rev.revoked["good-reset"] {
		t.Fatal("expected token revoked after successful retry")
	}
}

func TestRunConsumeWrongPurpose(t *testing.T) {
	rev := newFakeRevocations()
	deps := consumeDeps(rev, func(context.Context, ConsumePrincipal) error {
		t.Fatal("consume callback must not run for wrong-purpose token")
		return nil
	})

	// A valid email verification token presented to the reset flow is
	// reported exactly like a malformed one.
	result := RunConsume(context.Background(), "verify-token", deps)
	if result.Failure != ConsumeFailureDecode {
		t.Fatalf("expected ConsumeFailureDecode, got %d", result.Failure)
	}
}

func TestRunConsumeExpiredTokenBestEffortRevoked(t *testing.T) {
	rev := newFakeRevocations()
	deps := consumeDeps(rev, nil)

	result := RunConsume(context.Background(), "expired-reset", deps)
	if result.Failure != ConsumeFailureDecode {
		t.Fatalf("expected ConsumeFailureDecode, got %d", result.Failure)
	}
	if !rev.revoked["expired-reset"] {
		t.Fatal("expected best-effort revocation of the expired token")
	}
}

func TestRunConsumePrincipalNotFound(t *testing.T) {
	rev := newFakeRevocations()
	deps := consumeDeps(rev, nil)
	deps.FindPrincipal = func(context.Context, string) (ConsumePrincipal, bool, error) {
		return ConsumePrincipal{}, false, nil
	}

	result := RunConsume(context.Background(), "good-reset", deps)
	if result.Failure != ConsumeFailurePrincipalNotFound {
		t.Fatalf("expected ConsumeFailurePrincipalNotFound, got %d", result.Failure)
	}
}

func TestRunConsumeStoreFailure(t *testing.T) {
	rev := newFakeRevocations()
	rev.checkErr = errors.New("redis down")
	deps := consumeDeps(rev, nil)

	result := RunConsume(context.Background(), "good-reset", deps)
	if result.Failure != ConsumeFailureStore {
		t.Fatalf("expected ConsumeFailureStore, got %d", result.Failure)
	}
}
