package vigil

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/vigil-auth/vigil/mailer"
	"github.com/vigil-auth/vigil/revocation"
)

func TestEmailVerificationRoundTrip(t *testing.T) {
	engine, principals, _ := newTestEngine(t, nil)
	ctx := context.Background()

	tok, err := engine.RequestEmailVerification(ctx, 7)
	if err != nil {
		t.Fatalf("RequestEmailVerification error: %v", err)
	}

	if err := engine.ConsumeEmailVerification(ctx, tok); err != nil {
		t.Fatalf("ConsumeEmailVerification error: %v", err)
	}

	p, _, _ := principals.FindByID(ctx, 7)
	if !p.Verified {
		t.Fatal("expected principal marked verified")
	}

	// Single use: the link is dead after consumption.
	err = engine.ConsumeEmailVerification(ctx, tok)
	if !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked on replay, got %v", err)
	}
}

func TestEmailVerificationRequestRejections(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := engine.RequestEmailVerification(ctx, 9999); !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound, got %v", err)
	}
	if _, err := engine.RequestEmailVerification(ctx, 13); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}

	// Already verified accounts have nothing to verify.
	_, err := engine.RequestEmailVerification(ctx, 42)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if HTTPStatus(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", HTTPStatus(err))
	}
}

func TestEmailVerificationRejectsOtherPurposes(t *testing.T) {
	engine, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	reset, err := engine.RequestPasswordReset(ctx, 42)
	if err != nil {
		t.Fatalf("RequestPasswordReset error: %v", err)
	}

	// A reset token presented to the verification flow is reported exactly
	// like a malformed token.
	err = engine.ConsumeEmailVerification(ctx, reset)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	// And it is still usable for its own flow.
	if err := engine.ConsumePasswordReset(ctx, reset, "New-Password-9"); err != nil {
		t.Fatalf("reset token should have survived the wrong-flow attempt: %v", err)
	}
}

func TestPasswordResetRoundTrip(t *testing.T) {
	engine, principals, _ := newTestEngine(t, nil)
	ctx := context.Background()

	tok, err := engine.RequestPasswordReset(ctx, 42)
	if err != nil {
		t.Fatalf("RequestPasswordReset error: %v", err)
	}

	if err := engine.ConsumePasswordReset(ctx, tok, "Correct-Horse-9"); err != nil {
		t.Fatalf("ConsumePasswordReset error: %v", err)
	}

	ok, err := engine.VerifyPassword("Correct-Horse-9", principals.hash(42))
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if !ok {
		t.Fatal("stored hash does not match the new password")
	}

	err = engine.ConsumePasswordReset(ctx, tok, "Another-Password-1")
	if !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked on replay, got %v", err)
	}
}

func TestPasswordResetWeakPasswordKeepsTokenUsable(t *testing.T) {
	engine, principals, _ := newTestEngine(t, nil)
	ctx := context.Background()

	tok, err := engine.RequestPasswordReset(ctx, 42)
	if err != nil {
		t.Fatalf("RequestPasswordReset error: %v", err)
	}

	err = engine.ConsumePasswordReset(ctx, tok, "weak")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for weak password, got %v", err)
	}
	if len(ve.Fields) != 1 || ve.Fields[0].Field != "new_password" {
		t.Fatalf("unexpected fields %+v", ve.Fields)
	}
	if principals.hash(42) != "" {
		t.Fatal("weak password must not be stored")
	}

	// The link survives the rejection and works with a strong password.
	if err := engine.ConsumePasswordReset(ctx, tok, "Correct-Horse-9"); err != nil {
		t.Fatalf("retry with strong password failed: %v", err)
	}
}

func TestPasswordResetExpiredToken(t *testing.T) {
	engine, _, revocations := newTestEngine(t, func(cfg *Config) {
		cfg.JWT.PasswordResetTTL = time.Nanosecond
	})
	ctx := context.Background()

	tok, err := engine.RequestPasswordReset(ctx, 42)
	if err != nil {
		t.Fatalf("RequestPasswordReset error: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	err = engine.ConsumePasswordReset(ctx, tok, "Correct-Horse-9")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}

	revoked, _ := revocations.IsRevoked(ctx, tok)
	if !revoked {
		t.Fatal("expected expired reset token on the blacklist")
	}
}

func TestMailDelivery(t *testing.T) {
	outbox := mailer.NewChannelMailer(4)

	cfg := testConfig()
	cfg.Mail.Enabled = true
	cfg.Mail.BaseURL = "https://app.example.com"

	principals := newStubPrincipals()
	principals.put(Principal{ID: 7, Username: "bob", Email: "bob@example.com", Active: true})

	engine, err := New().
		WithConfig(cfg).
		WithPrincipalStore(principals).
		WithRevocationStore(revocation.NewMemoryStore()).
		WithMailer(outbox).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	defer engine.Close()

	tok, err := engine.RequestEmailVerification(context.Background(), 7)
	if err != nil {
		t.Fatalf("RequestEmailVerification error: %v", err)
	}

	select {
	case msg := <-outbox.Messages():
		if msg.To != "bob@example.com" {
			t.Fatalf("unexpected recipient %q", msg.To)
		}
		want := "https://app.example.com/verify-email?token=" + tok
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("mail body missing verification link %q:\n%s", want, msg.Text)
		}
	default:
		t.Fatal("expected a delivered message")
	}
}

func TestMailFailureSurfacesAsUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.Mail.Enabled = true
	cfg.Mail.BaseURL = "https://app.example.com"

	principals := newStubPrincipals()
	principals.put(Principal{ID: 7, Username: "bob", Email: "bob@example.com", Active: true})

	engine, err := New().
		WithConfig(cfg).
		WithPrincipalStore(principals).
		WithRevocationStore(revocation.NewMemoryStore()).
		WithMailer(failingMailer{}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	defer engine.Close()

	_, err = engine.RequestPasswordReset(context.Background(), 7)
	if !errors.Is(err, ErrMailUnavailable) {
		t.Fatalf("expected ErrMailUnavailable, got %v", err)
	}
	if HTTPStatus(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", HTTPStatus(err))
	}
}

type failingMailer struct{}

func (failingMailer) Send(context.Context, mailer.Message) error {
	return errors.New("relay refused connection")
}

func TestEngineMetricsAndAudit(t *testing.T) {
	sink := NewChannelSink(64)

	principals := newStubPrincipals()
	principals.put(Principal{ID: 42, Username: "alice", Active: true, Verified: true})

	cfg := testConfig()
	cfg.Metrics.Enabled = true
	cfg.Audit.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithPrincipalStore(principals).
		WithRevocationStore(revocation.NewMemoryStore()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	ctx := WithClientIP(context.Background(), "203.0.113.9")

	pair, err := engine.IssueSessionTokens(ctx, Principal{ID: 42, Username: "alice", Active: true})
	if err != nil {
		t.Fatalf("IssueSessionTokens error: %v", err)
	}
	if _, err := engine.Authenticate(ctx, pair.AccessToken); err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if _, err := engine.Authenticate(ctx, "garbage"); err == nil {
		t.Fatal("expected failure for garbage token")
	}

	engine.Close() // drains the dispatcher

	snap := engine.MetricsSnapshot()
	if got := snap.Counters[MetricPairIssued]; got != 1 {
		t.Fatalf("pair issued counter = %d, want 1", got)
	}
	if got := snap.Counters[MetricAuthenticateSuccess]; got != 1 {
		t.Fatalf("authenticate success counter = %d, want 1", got)
	}
	if got := snap.Counters[MetricAuthenticateFailure]; got != 1 {
		t.Fatalf("authenticate failure counter = %d, want 1", got)
	}

	events := map[string]int{}
	var sawIP bool
drain:
	for {
		select {
		case ev := <-sink.Events():
			events[ev.EventType]++
			if ev.IP == "203.0.113.9" {
				sawIP = true
			}
		default:
			break drain
		}
	}

	if events["pair_issued"] != 1 {
		t.Fatalf("expected one pair_issued event, got %d", events["pair_issued"])
	}
	if events["authenticate_success"] != 1 || events["authenticate_failure"] != 1 {
		t.Fatalf("unexpected authenticate events: %v", events)
	}
	if !sawIP {
		t.Fatal("expected client IP from context on audit events")
	}
}
