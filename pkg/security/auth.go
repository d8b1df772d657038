package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of an issued bearer token.
const TokenTTL = 24 * time.Hour

// HashPassword hashes a plaintext admin password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// tokenClaims is the payload of a bearer token. There is no JWT library in
// the dependency set this module draws from, so the token is a small
// hand-rolled HMAC-signed structure instead of a standards-compliant JWT;
// it carries the same two claims (subject and expiry) a JWT would.
type tokenClaims struct {
	Subject string `json:"sub"`
	Expiry  int64  `json:"exp"`
}

// TokenSigner issues and verifies bearer tokens using a single shared
// secret, rotated only on process restart with a fresh random key.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner builds a signer from a secret key (at least 32 bytes are
// recommended; callers generate one with crypto/rand at startup and keep
// it in memory only).
func NewTokenSigner(secret []byte) *TokenSigner {
	return &TokenSigner{secret: secret}
}

// Issue creates a token for the given subject, valid for TokenTTL from now.
func (s *TokenSigner) Issue(subject string) (string, error) {
	claims := tokenClaims{Subject: subject, Expiry: time.Now().Add(TokenTTL).Unix()}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	encodedPayload := base64.RawURLEncoding.EncodeToString(payload)
	sig := s.sign(encodedPayload)
	return encodedPayload + "." + sig, nil
}

// Verify checks the token's signature and expiry, returning the subject.
func (s *TokenSigner) Verify(token string) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", ErrTokenMalformed
	}
	encodedPayload, sig := parts[0], parts[1]

	expected := s.sign(encodedPayload)
	if subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) != 1 {
		return "", ErrTokenSignature
	}

	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return "", ErrTokenMalformed
	}
	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", ErrTokenMalformed
	}
	if time.Now().Unix() > claims.Expiry {
		return "", ErrTokenExpired
	}
	return claims.Subject, nil
}

func (s *TokenSigner) sign(data string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
