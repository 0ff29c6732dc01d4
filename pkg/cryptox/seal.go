package cryptox

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealer encrypts signing secrets for storage at rest using
// XChaCha20-Poly1305 under a master key. The master key material is
// loaded from a file and stretched to key size with SHA-256, so any
// reasonably long passphrase works.
type Sealer struct {
	aead cipher.AEAD
}

var ErrSealedTooShort = errors.New("cryptox: sealed payload too short")

// NewSealerFromFile reads master key material from path and builds a
// Sealer. The file contents are treated as opaque bytes.
func NewSealerFromFile(path string) (*Sealer, error) {
	material, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cryptox: read master key file: %w", err)
	}
	return NewSealer(material)
}

// NewSealer builds a Sealer from raw master key material.
func NewSealer(material []byte) (*Sealer, error) {
	if len(material) == 0 {
		return nil, errors.New("cryptox: empty master key material")
	}

	key := sha256.Sum256(material)
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("cryptox: init aead: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext. The random nonce is prepended to the result.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a payload produced by Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, ErrSealedTooShort
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("cryptox: open sealed payload: %w", err)
	}
	return plaintext, nil
}
