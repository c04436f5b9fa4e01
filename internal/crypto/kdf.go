package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// KDFName is recorded in the vault file so future versions can switch KDFs.
	KDFName = "scrypt"

	// scrypt parameters for the local wallet vault
	// Security is prioritized over performance
	//
	// N=2^18 (~256MB RAM, 0.5-2s) - optimal balance:
	//   - Maximum security while remaining usable in a browser tab or on a phone
	//   - Brute-force attacks remain extremely expensive
	//
	// Note: N=2^20 (~1GB) offers the highest security but fails on mobile due to
	// per-app memory limits (~256-512MB typically)
	DefaultLogN = 18
	// MinLogN is the lowest cost a vault file may carry. It is far too cheap
	// for real vaults and only reachable through explicit options in tests.
	MinLogN = 10
	// MinConfigLogN is the lowest cost accepted from configuration. It keeps
	// unlock above ~100ms on commodity hardware.
	MinConfigLogN = 16
	// MaxLogN bounds what a vault file may request, so a crafted file cannot
	// make unlock allocate unbounded memory.
	MaxLogN = 22

	scryptR = 8
	scryptP = 1
	KeyLen  = 32
	SaltLen = 32
)

// ScryptParams are the tunable scrypt inputs.
type ScryptParams struct {
	LogN   uint8
	R      int
	P      int
	KeyLen int
}

// DefaultScryptParams returns the parameters new vaults are created with.
func DefaultScryptParams() ScryptParams {
	return ScryptParams{LogN: DefaultLogN, R: scryptR, P: scryptP, KeyLen: KeyLen}
}

// Validate rejects parameters outside the supported range.
func (p ScryptParams) Validate() error {
	if p.LogN < MinLogN || p.LogN > MaxLogN {
		return fmt.Errorf("scrypt logN %d out of range [%d, %d]", p.LogN, MinLogN, MaxLogN)
	}
	if p.R <= 0 || p.P <= 0 {
		return errors.New("scrypt r and p must be positive")
	}
	if p.R*p.P >= 1<<30 {
		return errors.New("scrypt r*p too large")
	}
	if p.KeyLen != KeyLen {
		return fmt.Errorf("key length must be %d", KeyLen)
	}
	return nil
}

// NewSalt returns a fresh random salt of SaltLen bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a symmetric key from the passphrase.
// passphrase must be []byte for security (caller should zero it after use)
func DeriveKey(passphrase, salt []byte, p ScryptParams) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("passphrase is required")
	}
	if len(salt) != SaltLen {
		return nil, fmt.Errorf("salt must be %d bytes", SaltLen)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	key, err := scrypt.Key(passphrase, salt, 1<<p.LogN, p.R, p.P, p.KeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
