package auth

import (
	"testing"
	"time"
)

func newTestSigner(t *testing.T, ttl time.Duration) *JWTSigner {
	t.Helper()
	priv, _, err := GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	return NewJWTSigner(priv, "passguard-test", ttl)
}

func TestIssueAndParseToken(t *testing.T) {
	signer := newTestSigner(t, time.Minute)

	tok, exp, err := signer.IssueToken("64f0c3a1b2c3d4e5f6a7b8c9")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("expiry is not in the future")
	}

	claims, err := signer.ParseAndValidate(tok)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Sub != "64f0c3a1b2c3d4e5f6a7b8c9" {
		t.Fatalf("sub = %q", claims.Sub)
	}
	if claims.TokenID == "" {
		t.Fatal("jti missing")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	signer := newTestSigner(t, -time.Minute)
	tok, _, err := signer.IssueToken("someone")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := signer.ParseAndValidate(tok); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseRejectsForeignToken(t *testing.T) {
	a := newTestSigner(t, time.Minute)
	b := newTestSigner(t, time.Minute)

	tok, _, err := a.IssueToken("someone")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := b.ParseAndValidate(tok); err == nil {
		t.Fatal("expected token signed by another key to be rejected")
	}
	if _, err := b.ParseAndValidate("not-a-token"); err == nil {
		t.Fatal("expected garbage token to be rejected")
	}
}
