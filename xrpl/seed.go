package xrpl

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xrplto/wallet/internal/model"
)

const (
	// SeedMinLen and SeedMaxLen bound the encoded length of a family seed.
	SeedMinLen = 20
	SeedMaxLen = 35

	seedSentinel    = 's'
	ed25519Prefix   = "sEd"
	seedEntropySize = 16
)

var (
	secp256k1SeedVersion = []byte{0x21}
	ed25519SeedVersion   = []byte{0x01, 0xE1, 0x4B}
)

var (
	ErrSeedEmpty        = errors.New("seed is empty")
	ErrSeedBadPrefix    = errors.New("seed must start with 's'")
	ErrSeedBadLength    = fmt.Errorf("seed length must be between %d and %d characters", SeedMinLen, SeedMaxLen)
	ErrSeedBadCharacter = errors.New("seed contains a character outside the ledger alphabet")
	ErrSeedChecksum     = errors.New("seed checksum mismatch")
)

// BadCharacterError reports the first character of a seed that is not in the
// ledger base58 alphabet.
type BadCharacterError struct {
	Char  rune
	Index int
}

func (e *BadCharacterError) Error() string {
	return fmt.Sprintf("invalid seed character %q at position %d", e.Char, e.Index)
}

func (e *BadCharacterError) Unwrap() error {
	return ErrSeedBadCharacter
}

// ValidateSeed checks the textual shape of a seed without decoding it.
func ValidateSeed(seedText string) error {
	s := strings.TrimSpace(seedText)
	if s == "" {
		return ErrSeedEmpty
	}
	if s[0] != seedSentinel {
		return ErrSeedBadPrefix
	}
	if n := utf8.RuneCountInString(s); n < SeedMinLen || n > SeedMaxLen {
		return ErrSeedBadLength
	}
	i := 0
	for _, r := range s {
		if !strings.ContainsRune(Alphabet, r) {
			return &BadCharacterError{Char: r, Index: i}
		}
		i++
	}
	return nil
}

// AlgorithmOf classifies a seed by its prefix. Callers validate first.
func AlgorithmOf(seedText string) model.Algorithm {
	if strings.HasPrefix(strings.TrimSpace(seedText), ed25519Prefix) {
		return model.AlgorithmEd25519
	}
	return model.AlgorithmSecp256k1
}

// DecodeSeed validates and decodes a family seed into its 16 bytes of entropy.
func DecodeSeed(seedText string) ([]byte, model.Algorithm, error) {
	if err := ValidateSeed(seedText); err != nil {
		return nil, "", err
	}
	decoded, err := decodeCheck(strings.TrimSpace(seedText))
	if err != nil {
		if errors.Is(err, errChecksum) {
			return nil, "", ErrSeedChecksum
		}
		return nil, "", fmt.Errorf("failed to decode seed: %w", err)
	}

	switch {
	case len(decoded) == len(ed25519SeedVersion)+seedEntropySize && bytes.HasPrefix(decoded, ed25519SeedVersion):
		return decoded[len(ed25519SeedVersion):], model.AlgorithmEd25519, nil
	case len(decoded) == len(secp256k1SeedVersion)+seedEntropySize && bytes.HasPrefix(decoded, secp256k1SeedVersion):
		return decoded[len(secp256k1SeedVersion):], model.AlgorithmSecp256k1, nil
	default:
		return nil, "", errors.New("unknown seed version")
	}
}

// EncodeSeed encodes 16 bytes of entropy as a family seed for the given algorithm.
func EncodeSeed(entropy []byte, alg model.Algorithm) (string, error) {
	if len(entropy) != seedEntropySize {
		return "", fmt.Errorf("seed entropy must be %d bytes", seedEntropySize)
	}
	switch alg {
	case model.AlgorithmEd25519:
		return encodeCheck(ed25519SeedVersion, entropy), nil
	case model.AlgorithmSecp256k1:
		return encodeCheck(secp256k1SeedVersion, entropy), nil
	default:
		return "", fmt.Errorf("unsupported algorithm: %q", alg)
	}
}
