package model

import "time"

// Algorithm is the signing algorithm a ledger key pair uses.
type Algorithm string

const (
	AlgorithmEd25519   Algorithm = "ed25519"
	AlgorithmSecp256k1 Algorithm = "secp256k1"
)

// Valid reports whether a is a supported algorithm.
func (a Algorithm) Valid() bool {
	return a == AlgorithmEd25519 || a == AlgorithmSecp256k1
}

// KDFParams describes the passphrase key-derivation parameters stored in the vault file.
type KDFParams struct {
	Name   string `json:"name"`
	LogN   uint8  `json:"logN"`
	R      int    `json:"r"`
	P      int    `json:"p"`
	KeyLen int    `json:"keyLen"`
	Salt   string `json:"salt"`
}

// SealedBox is an AES-GCM ciphertext with its nonce and authentication tag split out.
type SealedBox struct {
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
	AuthTag    string `json:"authTag"`
}

// VaultEntry is one encrypted wallet inside the vault file.
type VaultEntry struct {
	Label      string    `json:"label"`
	Address    string    `json:"address"`
	Algorithm  Algorithm `json:"algorithm"`
	CipherText string    `json:"cipherText"`
	Nonce      string    `json:"nonce"`
	AuthTag    string    `json:"authTag"`
	CreatedAt  time.Time `json:"createdAt"`
}

// VaultFile represents the persisted vault structure
type VaultFile struct {
	Version int          `json:"version"`
	KDF     KDFParams    `json:"kdf"`
	Check   SealedBox    `json:"check"`
	Entries []VaultEntry `json:"entries"`
}

// WalletSecret represents decrypted wallet data
type WalletSecret struct {
	PrivateKey []byte `json:"privateKey"` // stored as base64 in JSON
	Seed       string `json:"seed,omitempty"`
}
