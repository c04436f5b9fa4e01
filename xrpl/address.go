package xrpl

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"
)

// Alphabet is the ledger's base58 alphabet.
const Alphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

const (
	checksumLen  = 4
	accountIDLen = 20
)

var (
	ledgerAlphabet = base58.NewAlphabet(Alphabet)
	accountVersion = []byte{0x00}

	errChecksum = errors.New("checksum mismatch")
)

func checksum(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:checksumLen]
}

// encodeCheck encodes version||payload||checksum in the ledger alphabet.
func encodeCheck(version, payload []byte) string {
	buf := make([]byte, 0, len(version)+len(payload)+checksumLen)
	buf = append(buf, version...)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return base58.EncodeAlphabet(buf, ledgerAlphabet)
}

// decodeCheck returns version||payload after verifying the checksum.
func decodeCheck(s string) ([]byte, error) {
	raw, err := base58.DecodeAlphabet(s, ledgerAlphabet)
	if err != nil {
		return nil, err
	}
	if len(raw) <= checksumLen {
		return nil, errors.New("encoded value too short")
	}
	body, sum := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	if !bytes.Equal(checksum(body), sum) {
		return nil, errChecksum
	}
	return body, nil
}

// AccountID returns RIPEMD160(SHA256(publicKey)).
func AccountID(publicKey []byte) []byte {
	sha := sha256.Sum256(publicKey)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}

// AddressFromPublicKey encodes the classic address of a public key.
func AddressFromPublicKey(publicKey []byte) (string, error) {
	if len(publicKey) != 33 {
		return "", fmt.Errorf("public key must be 33 bytes, got %d", len(publicKey))
	}
	return encodeCheck(accountVersion, AccountID(publicKey)), nil
}

// IsValidAddress reports whether s is a well-formed classic address.
func IsValidAddress(s string) bool {
	if len(s) < 25 || len(s) > 35 || s[0] != 'r' {
		return false
	}
	body, err := decodeCheck(s)
	if err != nil {
		return false
	}
	return len(body) == len(accountVersion)+accountIDLen && body[0] == accountVersion[0]
}
