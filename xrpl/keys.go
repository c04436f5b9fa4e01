package xrpl

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/xrplto/wallet/internal/common"
	"github.com/xrplto/wallet/internal/model"
)

// ed25519PublicPrefix marks ed25519 public keys on the ledger.
const ed25519PublicPrefix = 0xED

// maxScalarAttempts bounds the sequence search for a valid secp256k1 scalar.
// A miss has probability ~2^-128 per attempt, so this is never reached in practice.
const maxScalarAttempts = 1 << 16

// KeyPair is a ledger key pair held in memory only.
type KeyPair struct {
	Algorithm  model.Algorithm
	PublicKey  []byte // 33 bytes: 0xED||ed25519 key, or compressed secp256k1
	PrivateKey []byte // 32 bytes
	Address    string
	Seed       string // family seed when the pair came from one
}

// String prints the address only, so formatting a KeyPair never leaks key material.
func (k *KeyPair) String() string {
	if k == nil {
		return "<nil>"
	}
	return k.Address
}

// GoString keeps %#v from dumping the private key.
func (k *KeyPair) GoString() string {
	return fmt.Sprintf("xrpl.KeyPair{Algorithm:%q, Address:%q}", k.Algorithm, k.Address)
}

// PublicKeyHex returns the public key as upper-case hex, the form the ledger uses.
func (k *KeyPair) PublicKeyHex() string {
	return strings.ToUpper(hex.EncodeToString(k.PublicKey))
}

// Wipe zeroes private key material.
func (k *KeyPair) Wipe() {
	if k == nil {
		return
	}
	clear(k.PrivateKey)
	k.Seed = ""
}

// DeriveKeyPair validates a seed and derives its account key pair.
func DeriveKeyPair(seedText string) (*KeyPair, error) {
	entropy, alg, err := DecodeSeed(seedText)
	if err != nil {
		return nil, err
	}
	defer clear(entropy)

	kp, err := deriveFromSeedEntropy(entropy, alg)
	if err != nil {
		return nil, err
	}
	kp.Seed = strings.TrimSpace(seedText)
	return kp, nil
}

// KeyPairFromEntropy derives a key pair the way the ledger SDKs do from raw
// entropy: the first 16 bytes become the family seed.
func KeyPairFromEntropy(entropy []byte, alg model.Algorithm) (*KeyPair, error) {
	if len(entropy) < seedEntropySize {
		return nil, fmt.Errorf("entropy must be at least %d bytes", seedEntropySize)
	}
	seedEntropy := entropy[:seedEntropySize]
	seed, err := EncodeSeed(seedEntropy, alg)
	if err != nil {
		return nil, err
	}
	kp, err := deriveFromSeedEntropy(seedEntropy, alg)
	if err != nil {
		return nil, err
	}
	kp.Seed = seed
	return kp, nil
}

// KeyPairFromPrivateKey rebuilds the public half and address from a private key.
func KeyPairFromPrivateKey(alg model.Algorithm, privateKey []byte) (*KeyPair, error) {
	if len(privateKey) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(privateKey))
	}
	priv := make([]byte, 32)
	copy(priv, privateKey)

	var pub []byte
	switch alg {
	case model.AlgorithmEd25519:
		pub = ed25519Public(priv)
	case model.AlgorithmSecp256k1:
		var k secp256k1.ModNScalar
		if overflow := k.SetByteSlice(priv); overflow || k.IsZero() {
			clear(priv)
			return nil, errors.New("private key is not a valid secp256k1 scalar")
		}
		pub = secp256k1.NewPrivateKey(&k).PubKey().SerializeCompressed()
		k.Zero()
	default:
		return nil, fmt.Errorf("unsupported algorithm: %q", alg)
	}
	return newKeyPair(alg, pub, priv)
}

func newKeyPair(alg model.Algorithm, pub, priv []byte) (*KeyPair, error) {
	address, err := AddressFromPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		Algorithm:  alg,
		PublicKey:  pub,
		PrivateKey: priv,
		Address:    address,
	}, nil
}

func deriveFromSeedEntropy(entropy []byte, alg model.Algorithm) (*KeyPair, error) {
	switch alg {
	case model.AlgorithmEd25519:
		priv := common.SHA512Half(entropy)
		out := make([]byte, 32)
		copy(out, priv[:])
		clear(priv[:])
		return newKeyPair(alg, ed25519Public(out), out)
	case model.AlgorithmSecp256k1:
		return deriveSecp256k1(entropy)
	default:
		return nil, fmt.Errorf("unsupported algorithm: %q", alg)
	}
}

func ed25519Public(priv []byte) []byte {
	key := ed25519.NewKeyFromSeed(priv)
	defer clear(key)
	pub := make([]byte, 0, 1+ed25519.PublicKeySize)
	pub = append(pub, ed25519PublicPrefix)
	return append(pub, key[ed25519.SeedSize:]...)
}

// deriveSecp256k1 derives the account key (index 0) of a secp256k1 family seed:
// root = first valid SHA512Half(seed||seq), intermediate = first valid
// SHA512Half(rootPub||0||seq), account key = root + intermediate mod n.
func deriveSecp256k1(entropy []byte) (*KeyPair, error) {
	root, err := findScalar(func(seq []byte) [32]byte {
		return common.SHA512Half(entropy, seq)
	})
	if err != nil {
		return nil, err
	}
	defer root.Zero()
	rootPub := secp256k1.NewPrivateKey(root).PubKey().SerializeCompressed()

	accountIndex := make([]byte, 4)
	intermediate, err := findScalar(func(seq []byte) [32]byte {
		return common.SHA512Half(rootPub, accountIndex, seq)
	})
	if err != nil {
		return nil, err
	}
	defer intermediate.Zero()

	var account secp256k1.ModNScalar
	account.Set(root).Add(intermediate)
	defer account.Zero()

	b := account.Bytes()
	priv := make([]byte, 32)
	copy(priv, b[:])
	clear(b[:])
	pub := secp256k1.NewPrivateKey(&account).PubKey().SerializeCompressed()
	return newKeyPair(model.AlgorithmSecp256k1, pub, priv)
}

func findScalar(hash func(seq []byte) [32]byte) (*secp256k1.ModNScalar, error) {
	seq := make([]byte, 4)
	for i := uint32(0); i < maxScalarAttempts; i++ {
		binary.BigEndian.PutUint32(seq, i)
		digest := hash(seq)
		var k secp256k1.ModNScalar
		overflow := k.SetBytes(&digest)
		clear(digest[:])
		if overflow == 0 && !k.IsZero() {
			return &k, nil
		}
	}
	return nil, errors.New("no valid secp256k1 scalar found")
}
