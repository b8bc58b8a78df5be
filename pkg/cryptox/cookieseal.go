package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	sealKeyOnce sync.Once
	sealKey     []byte
	sealKeyPath string = "" // Can be set via SetSealKeyPath before first use
)

// SetSealKeyPath configures where to load the cookie sealing key from.
// This must be called before any Seal/Open operations.
// If not set, the key will be loaded from the COOKIE_SEAL_KEY environment variable.
func SetSealKeyPath(path string) {
	sealKeyPath = path
}

// loadSealKey loads and derives a 32-byte key from either:
// 1. File specified by sealKeyPath (if set)
// 2. COOKIE_SEAL_KEY environment variable
// 3. Generates a temporary key for development (NOT for production)
func loadSealKey() ([]byte, error) {
	var keyMaterial []byte

	if sealKeyPath != "" {
		data, err := os.ReadFile(sealKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read seal key file: %w", err)
		}
		keyMaterial = data
	} else if envKey := os.Getenv("COOKIE_SEAL_KEY"); envKey != "" {
		keyMaterial = []byte(envKey)
	} else {
		// Development fallback - generate ephemeral key
		// WARNING: sealed cookies won't survive restart with an ephemeral key
		keyMaterial = make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(keyMaterial); err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral seal key: %w", err)
		}
	}

	// Derive a proper 32-byte key using SHA-256
	hash := sha256.Sum256(keyMaterial)
	return hash[:], nil
}

func getSealKey() ([]byte, error) {
	var err error
	sealKeyOnce.Do(func() {
		sealKey, err = loadSealKey()
	})
	if err != nil {
		return nil, err
	}
	return sealKey, nil
}

// SealCookieValue encrypts a cookie value using ChaCha20-Poly1305 and returns
// it base64url-encoded so it is safe to place in a Set-Cookie header.
// The binary layout is: [24-byte nonce][ciphertext][16-byte auth tag].
func SealCookieValue(plaintext string) (string, error) {
	key, err := getSealKey()
	if err != nil {
		return "", fmt.Errorf("failed to get seal key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the ciphertext and auth tag to nonce
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// OpenCookieValue decrypts a value produced by SealCookieValue.
// Tampered or truncated values fail authentication and return an error.
func OpenCookieValue(encoded string) (string, error) {
	key, err := getSealKey()
	if err != nil {
		return "", fmt.Errorf("failed to get seal key: %w", err)
	}

	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("malformed sealed value: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return "", fmt.Errorf("sealed value too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}

	return string(plaintext), nil
}

// ResetSealKeyForTesting resets the seal key singleton for testing purposes.
// This should ONLY be used in tests.
func ResetSealKeyForTesting() {
	sealKeyOnce = sync.Once{}
	sealKey = nil
}
