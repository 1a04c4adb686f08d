package tokenstore

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sealedPrefix = "sealed:v1:"
	saltSize     = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// ErrUnseal means a sealed payload could not be decrypted, usually a wrong
// passphrase.
var ErrUnseal = errors.New("cannot unseal stored credential")

// Sealer encrypts credential payloads with XChaCha20-Poly1305 under a key
// derived from a passphrase with Argon2id. Each payload carries its own salt
// and nonce.
type Sealer struct {
	passphrase []byte
}

// NewSealer returns nil for an empty passphrase (sealing disabled).
func NewSealer(passphrase string) *Sealer {
	if passphrase == "" {
		return nil
	}
	return &Sealer{passphrase: []byte(passphrase)}
}

// Seal returns "sealed:v1:" + base64(salt | nonce | ciphertext).
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	aead, err := s.aead(salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, []byte(sealedPrefix))
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(append(salt, sealed...)), nil
}

// Open reverses Seal.
func (s *Sealer) Open(stored string) ([]byte, error) {
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnseal, err)
	}
	if len(raw) < saltSize+chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("%w: payload too short", ErrUnseal)
	}

	salt, rest := raw[:saltSize], raw[saltSize:]
	aead, err := s.aead(salt)
	if err != nil {
		return nil, err
	}
	nonce, ciphertext := rest[:aead.NonceSize()], rest[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(sealedPrefix))
	if err != nil {
		return nil, ErrUnseal
	}
	return plaintext, nil
}

func (s *Sealer) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(s.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	return chacha20poly1305.NewX(key)
}
