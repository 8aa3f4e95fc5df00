package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"

	"github.com/arklim/campus-clock/internal/core/port"
)

var (
	// ErrCipherSecretMissing indicates the cipher was constructed
	// without a secret.
	ErrCipherSecretMissing = errors.New("cipher: secret is required")
	// ErrCiphertextMalformed indicates the stored blob cannot be decoded.
	ErrCiphertextMalformed = errors.New("cipher: malformed ciphertext")
)

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	cipherKeyLen = 32
)

// CredentialCipher encrypts portal passwords with AES-256-GCM keyed by
// a scrypt-derived key. The salt is fixed per deployment (derived from
// the secret) so ciphertexts survive restarts.
type CredentialCipher struct {
	aead cipher.AEAD
}

// NewCredentialCipher derives the AEAD from the configured secret.
func NewCredentialCipher(secret string) (*CredentialCipher, error) {
	if secret == "" {
		return nil, ErrCipherSecretMissing
	}

	salt := sha256.Sum256([]byte("campus-clock.credential-cipher:" + secret))

	key, err := scrypt.Key([]byte(secret), salt[:16], scryptN, scryptR, scryptP, cipherKeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive cipher key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init aes cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	return &CredentialCipher{aead: aead}, nil
}

// Encrypt seals the plaintext with a random nonce and returns a base64 blob.
func (c *CredentialCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt.
func (c *CredentialCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCiphertextMalformed, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrCiphertextMalformed
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("open ciphertext: %w", err)
	}

	return string(plaintext), nil
}

var _ port.CredentialCipher = (*CredentialCipher)(nil)
