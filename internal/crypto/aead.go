package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	NonceLen = 12
	TagLen   = 16
)

// ErrAuthentication is returned when a ciphertext fails its GCM tag check.
var ErrAuthentication = errors.New("message authentication failed")

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("aes-gcm requires a %d-byte key", KeyLen)
	}

	// Create AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Create GCM
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

// Seal encrypts plaintext with AES-256-GCM under a fresh random nonce and
// returns the nonce, ciphertext and authentication tag separately.
func Seal(key, plaintext, aad []byte) (nonce, ciphertext, tag []byte, err error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, nil, nil, err
	}

	nonce = make([]byte, NonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aesGCM.Seal(nil, nonce, plaintext, aad)
	split := len(sealed) - TagLen
	return nonce, sealed[:split], sealed[split:], nil
}

// Open verifies the tag and decrypts. Any authentication failure is reported
// as ErrAuthentication and no plaintext is returned.
func Open(key, nonce, ciphertext, tag, aad []byte) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceLen {
		return nil, fmt.Errorf("%w: invalid nonce size", ErrAuthentication)
	}
	if len(tag) != TagLen {
		return nil, fmt.Errorf("%w: invalid tag size", ErrAuthentication)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aesGCM.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
