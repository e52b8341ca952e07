package auth

import (
	"encoding/base64"
	"testing"
	"time"

	"pong-arena/internal/config"
)

func testAuthenticator() *Authenticator {
	cfg := config.DefaultAuth()
	cfg.Secret = "test-secret"
	return New(cfg)
}

// TestMintVerifyRoundTrip verifies a freshly minted token carries the
// identity back.
func TestMintVerifyRoundTrip(t *testing.T) {
	a := testAuthenticator()

	token, err := a.Mint(42, "alice")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	id, err := a.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != 42 || id.Username != "alice" {
		t.Errorf("identity = %d/%s, want 42/alice", id.UserID, id.Username)
	}
}

// TestVerifyRejections covers the failure taxonomy: no token, garbage,
// tampered payload, wrong secret, expired.
func TestVerifyRejections(t *testing.T) {
	a := testAuthenticator()
	token, _ := a.Mint(42, "alice")

	if _, err := a.Verify(""); err != ErrNoToken {
		t.Errorf("empty token: err = %v, want ErrNoToken", err)
	}

	for name, bad := range map[string]string{
		"not base64":   "!!!not-base64!!!",
		"no signature": base64.URLEncoding.EncodeToString([]byte(`{"user_id":42}`)),
		"garbage":      base64.URLEncoding.EncodeToString([]byte("garbage.deadbeef")),
	} {
		if _, err := a.Verify(bad); err != ErrInvalidToken {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}

	// Tampered payload: flip a byte inside the decoded token.
	decoded, _ := base64.URLEncoding.DecodeString(token)
	decoded[10] ^= 0xff
	tampered := base64.URLEncoding.EncodeToString(decoded)
	if _, err := a.Verify(tampered); err != ErrInvalidToken {
		t.Errorf("tampered: err = %v, want ErrInvalidToken", err)
	}

	// A token signed with a different secret must not verify.
	other := New(config.AuthConfig{Secret: "other-secret", TokenDuration: time.Hour})
	foreign, _ := other.Mint(42, "alice")
	if _, err := a.Verify(foreign); err != ErrInvalidToken {
		t.Errorf("foreign secret: err = %v, want ErrInvalidToken", err)
	}
}

// TestVerifyExpired verifies expired tokens are rejected.
func TestVerifyExpired(t *testing.T) {
	cfg := config.DefaultAuth()
	cfg.Secret = "test-secret"
	cfg.TokenDuration = -time.Minute
	a := New(cfg)

	token, err := a.Mint(42, "alice")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := a.Verify(token); err != ErrInvalidToken {
		t.Errorf("expired token: err = %v, want ErrInvalidToken", err)
	}
}

// TestEphemeralSecret verifies an empty secret still produces a
// working authenticator.
func TestEphemeralSecret(t *testing.T) {
	a := New(config.AuthConfig{TokenDuration: time.Hour})

	token, err := a.Mint(1, "bob")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if _, err := a.Verify(token); err != nil {
		t.Errorf("Verify: %v", err)
	}
}
