package token

import (
	"testing"
	"time"
)

func testTTLs() TTLs {
	return TTLs{
		Access:            time.Minute,
		Refresh:           time.Hour,
		EmailVerification: time.Hour,
		PasswordReset:     time.Hour,
	}
}

func TestNewIssuerRejectsNonPositiveTTL(t *testing.T) {
	codec := testCodec(t)

	bad := testTTLs()
	bad.Access = -time.Second
	if _, err := NewIssuer(codec, bad); err == nil {
		t.Fatal("expected error for negative access TTL")
	}

	bad = testTTLs()
	bad.PasswordReset = 0
	if _, err := NewIssuer(codec, bad); err == nil {
		t.Fatal("expected error for zero password reset TTL")
	}
}

func TestIssuerMintsDistinctTokens(t *testing.T) {
	codec := testCodec(t)
	issuer, err := NewIssuer(codec, testTTLs())
	if err != nil {
		t.Fatalf("NewIssuer error: %v", err)
	}

	// Identical claim sets minted in the same second must still produce
	// distinct token strings; the jti claim guarantees it.
	first, err := issuer.AccessToken("42", "alice")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}
	second, err := issuer.AccessToken("42", "alice")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens for identical claims")
	}
}

func TestPairPurposes(t *testing.T) {
	codec := testCodec(t)
	issuer, err := NewIssuer(codec, testTTLs())
	if err != nil {
		t.Fatalf("NewIssuer error: %v", err)
	}

	access, refresh, err := issuer.Pair("42", "alice")
	if err != nil {
		t.Fatalf("Pair error: %v", err)
	}

	cs, err := codec.Decode(access)
	if err != nil {
		t.Fatalf("Decode(access) error: %v", err)
	}
	if cs.TokenPurpose() != PurposeAccess {
		t.Fatalf("access token has purpose %s", cs.TokenPurpose())
	}

	cs, err = codec.Decode(refresh)
	if err != nil {
		t.Fatalf("Decode(refresh) error: %v", err)
	}
	if cs.TokenPurpose() != PurposeRefresh {
		t.Fatalf("refresh token has purpose %s", cs.TokenPurpose())
	}
	if got := cs.(RefreshClaims).Username; got != "alice" {
		t.Fatalf("refresh token username = %q", got)
	}
}
