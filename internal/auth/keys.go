package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	// KeyPrefix marks bearer credentials issued by this service.
	KeyPrefix = "sk_"
	// WebhookSecretPrefix marks secrets handed to webhook endpoints.
	WebhookSecretPrefix = "whsec_"

	secretLength = 32
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// HashKey returns the lowercase hex SHA-256 digest of an API key.
// Only this digest is ever persisted; the raw key is shown once at creation.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// VerifyKey reports whether key hashes to storedHash. The comparison is
// constant-time so lookups cannot be used to probe digests byte by byte.
func VerifyKey(key, storedHash string) bool {
	computed := HashKey(key)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// NewKeySecret generates a fresh API key: "sk_" followed by 32 random
// alphanumeric characters.
func NewKeySecret() (string, error) {
	s, err := randomAlphanumeric(secretLength)
	if err != nil {
		return "", fmt.Errorf("NewKeySecret: %w", err)
	}
	return KeyPrefix + s, nil
}

// NewWebhookSecret generates a fresh endpoint signing secret: "whsec_"
// followed by 32 random alphanumeric characters.
func NewWebhookSecret() (string, error) {
	s, err := randomAlphanumeric(secretLength)
	if err != nil {
		return "", fmt.Errorf("NewWebhookSecret: %w", err)
	}
	return WebhookSecretPrefix + s, nil
}

func randomAlphanumeric(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphanumeric[int(b)%len(alphanumeric)]
	}
	return string(out), nil
}
