// Package auth issues and verifies the signed tokens that gate the
// game WebSocket. Tokens are stateless: a JSON payload signed with
// HMAC-SHA256, so verification needs no session table.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"pong-arena/internal/config"
)

var (
	// ErrNoToken means the handshake carried no token at all.
	ErrNoToken = errors.New("missing token")

	// ErrInvalidToken covers everything else: bad encoding, bad
	// signature, expired payload. Callers must not distinguish further;
	// the close code is the only signal the client gets.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the verified subject of a token.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IssuedAt int64  `json:"issued_at"`
	Expires  int64  `json:"expires_at"`
}

// Authenticator mints and verifies tokens with a shared secret.
type Authenticator struct {
	secret   []byte
	duration time.Duration
}

// New creates an authenticator from config. An empty secret gets a
// random one, which is fine for a single instance but means tokens do
// not survive a restart.
func New(cfg config.AuthConfig) *Authenticator {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Printf("⚠️ Failed to generate auth secret, using fallback")
			secret = []byte("pong-arena-default-secret-key-32")
		}
		log.Printf("🔐 No AUTH_SECRET set, generated an ephemeral one")
	}
	return &Authenticator{
		secret:   secret,
		duration: cfg.TokenDuration,
	}
}

// Mint issues a signed token for the given identity.
func (a *Authenticator) Mint(userID int64, username string) (string, error) {
	now := time.Now()
	payload, err := json.Marshal(Identity{
		UserID:   userID,
		Username: username,
		IssuedAt: now.Unix(),
		Expires:  now.Add(a.duration).Unix(),
	})
	if err != nil {
		return "", err
	}

	sig := a.sign(payload)
	return base64.URLEncoding.EncodeToString([]byte(string(payload) + "." + sig)), nil
}

// Verify checks a token and returns the identity it carries.
// Returns ErrNoToken for an empty token and ErrInvalidToken for
// anything that fails to verify.
func (a *Authenticator) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoToken
	}

	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	// The payload is JSON and may contain dots, so split on the last
	// one: everything after it is the signature.
	idx := strings.LastIndex(string(decoded), ".")
	if idx < 0 {
		return Identity{}, ErrInvalidToken
	}
	payload := decoded[:idx]
	providedSig := string(decoded[idx+1:])

	expectedSig := a.sign(payload)
	if !hmac.Equal([]byte(providedSig), []byte(expectedSig)) {
		return Identity{}, ErrInvalidToken
	}

	var id Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return Identity{}, ErrInvalidToken
	}
	if id.Username == "" || id.UserID == 0 {
		return Identity{}, ErrInvalidToken
	}
	if time.Now().Unix() >= id.Expires {
		return Identity{}, ErrInvalidToken
	}

	return id, nil
}

func (a *Authenticator) sign(payload []byte) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
