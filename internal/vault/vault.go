package vault

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xrplto/wallet/internal/crypto"
	"github.com/xrplto/wallet/internal/model"
	"github.com/xrplto/wallet/xrpl"
)

// Version is the vault file format version written by this package.
const Version = 1

var checkPlaintext = []byte("xrplto-wallet-vault-check-v1")

// Vault is an encrypted multi-wallet container. It never holds plaintext
// secrets or the passphrase; callers persist Marshal output themselves.
type Vault struct {
	file model.VaultFile
	salt []byte
	kdf  crypto.ScryptParams
}

// DerivedKey is the unlocked vault key. Call Destroy when done with it.
type DerivedKey struct {
	key []byte
}

// Destroy zeroes the key.
func (k *DerivedKey) Destroy() {
	if k == nil {
		return
	}
	clear(k.key)
	k.key = nil
}

func (k *DerivedKey) bytes() ([]byte, error) {
	if k == nil || len(k.key) != crypto.KeyLen {
		return nil, errors.New("vault key is destroyed or invalid")
	}
	return k.key, nil
}

type options struct {
	kdf crypto.ScryptParams
}

// Option configures Create.
type Option func(*options)

// WithScryptLogN overrides the scrypt cost (N = 2^logN).
func WithScryptLogN(logN uint8) Option {
	return func(o *options) {
		o.kdf.LogN = logN
	}
}

// Create makes an empty vault protected by passphrase.
// passphrase must be []byte for security (caller should zero it after use)
func Create(passphrase []byte, opts ...Option) (*Vault, error) {
	o := options{kdf: crypto.DefaultScryptParams()}
	for _, opt := range opts {
		opt(&o)
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}

	key, err := crypto.DeriveKey(passphrase, salt, o.kdf)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	nonce, ct, tag, err := crypto.Seal(key, checkPlaintext, checkAAD())
	if err != nil {
		return nil, fmt.Errorf("failed to seal vault check: %w", err)
	}

	return &Vault{
		file: model.VaultFile{
			Version: Version,
			KDF: model.KDFParams{
				Name:   crypto.KDFName,
				LogN:   o.kdf.LogN,
				R:      o.kdf.R,
				P:      o.kdf.P,
				KeyLen: o.kdf.KeyLen,
				Salt:   b64(salt),
			},
			Check:   sealedBox(nonce, ct, tag),
			Entries: []model.VaultEntry{},
		},
		salt: salt,
		kdf:  o.kdf,
	}, nil
}

// Parse decodes a serialized vault. Anything malformed is ErrCorruptVault.
func Parse(data []byte) (*Vault, error) {
	var file model.VaultFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptVault, err)
	}
	if file.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptVault, file.Version)
	}
	if file.KDF.Name != crypto.KDFName {
		return nil, fmt.Errorf("%w: unsupported kdf %q", ErrCorruptVault, file.KDF.Name)
	}
	kdf := crypto.ScryptParams{LogN: file.KDF.LogN, R: file.KDF.R, P: file.KDF.P, KeyLen: file.KDF.KeyLen}
	if err := kdf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptVault, err)
	}
	salt, err := base64.StdEncoding.DecodeString(file.KDF.Salt)
	if err != nil || len(salt) != crypto.SaltLen {
		return nil, fmt.Errorf("%w: bad salt", ErrCorruptVault)
	}

	seen := make(map[string]bool, len(file.Entries))
	for _, e := range file.Entries {
		if !xrpl.IsValidAddress(e.Address) || !e.Algorithm.Valid() || seen[e.Address] {
			return nil, fmt.Errorf("%w: bad entry", ErrCorruptVault)
		}
		seen[e.Address] = true
	}
	if file.Entries == nil {
		file.Entries = []model.VaultEntry{}
	}

	return &Vault{file: file, salt: salt, kdf: kdf}, nil
}

// Marshal serializes the vault for persistence.
func (v *Vault) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(v.file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vault: %w", err)
	}
	return data, nil
}

// Unlock derives the vault key and verifies it against the stored check.
// passphrase must be []byte for security (caller should zero it after use)
func (v *Vault) Unlock(passphrase []byte) (*DerivedKey, error) {
	if len(passphrase) == 0 {
		return nil, ErrWrongPassphrase
	}
	key, err := crypto.DeriveKey(passphrase, v.salt, v.kdf)
	if err != nil {
		return nil, err
	}

	nonce, ct, tag, err := openBox(v.file.Check)
	if err != nil {
		clear(key)
		return nil, err
	}
	pt, err := crypto.Open(key, nonce, ct, tag, checkAAD())
	if err != nil {
		clear(key)
		return nil, ErrWrongPassphrase
	}
	clear(pt)

	return &DerivedKey{key: key}, nil
}

// Entries returns a copy of the entry list. No secrets are exposed.
func (v *Vault) Entries() []model.VaultEntry {
	out := make([]model.VaultEntry, len(v.file.Entries))
	copy(out, v.file.Entries)
	return out
}

// Entry looks an entry up by address.
func (v *Vault) Entry(address string) (model.VaultEntry, bool) {
	i := v.indexOf(address)
	if i < 0 {
		return model.VaultEntry{}, false
	}
	return v.file.Entries[i], true
}

// AddEntry encrypts kp's private key under key and appends it.
func (v *Vault) AddEntry(key *DerivedKey, kp *xrpl.KeyPair, label string) (model.VaultEntry, error) {
	k, err := key.bytes()
	if err != nil {
		return model.VaultEntry{}, err
	}
	if kp == nil || len(kp.PrivateKey) != 32 {
		return model.VaultEntry{}, errors.New("key pair has no private key")
	}
	if v.indexOf(kp.Address) >= 0 {
		return model.VaultEntry{}, ErrEntryExists
	}

	plaintext, err := json.Marshal(model.WalletSecret{PrivateKey: kp.PrivateKey, Seed: kp.Seed})
	if err != nil {
		return model.VaultEntry{}, fmt.Errorf("failed to marshal wallet secret: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	nonce, ct, tag, err := crypto.Seal(k, plaintext, entryAAD(kp.Address, kp.Algorithm))
	if err != nil {
		return model.VaultEntry{}, fmt.Errorf("failed to encrypt entry: %w", err)
	}

	entry := model.VaultEntry{
		Label:      label,
		Address:    kp.Address,
		Algorithm:  kp.Algorithm,
		CipherText: b64(ct),
		Nonce:      b64(nonce),
		AuthTag:    b64(tag),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	v.file.Entries = append(v.file.Entries, entry)
	return entry, nil
}

// RemoveEntry deletes the entry for address. Removing a missing entry is a no-op.
func (v *Vault) RemoveEntry(address string) {
	i := v.indexOf(address)
	if i < 0 {
		return
	}
	v.file.Entries = append(v.file.Entries[:i], v.file.Entries[i+1:]...)
}

// DecryptEntry decrypts the entry for address and re-derives its key pair.
// The caller must Wipe the returned key pair.
func (v *Vault) DecryptEntry(key *DerivedKey, address string) (*xrpl.KeyPair, error) {
	k, err := key.bytes()
	if err != nil {
		return nil, err
	}
	i := v.indexOf(address)
	if i < 0 {
		return nil, ErrEntryNotFound
	}
	entry := v.file.Entries[i]

	nonce, ct, tag, err := openBox(model.SealedBox{Nonce: entry.Nonce, CipherText: entry.CipherText, AuthTag: entry.AuthTag})
	if err != nil {
		return nil, err
	}
	plaintext, err := crypto.Open(k, nonce, ct, tag, entryAAD(entry.Address, entry.Algorithm))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var secret model.WalletSecret
	if err := json.Unmarshal(plaintext, &secret); err != nil {
		return nil, fmt.Errorf("%w: bad entry payload", ErrCorruptVault)
	}
	defer clear(secret.PrivateKey)

	kp, err := xrpl.KeyPairFromPrivateKey(entry.Algorithm, secret.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptVault, err)
	}
	if kp.Address != entry.Address {
		kp.Wipe()
		return nil, fmt.Errorf("%w: entry address mismatch", ErrCorruptVault)
	}
	kp.Seed = secret.Seed
	return kp, nil
}

func (v *Vault) indexOf(address string) int {
	for i, e := range v.file.Entries {
		if e.Address == address {
			return i
		}
	}
	return -1
}

func checkAAD() []byte {
	return []byte("vault.check")
}

// entryAAD binds a ciphertext to its entry so entries cannot be swapped.
func entryAAD(address string, alg model.Algorithm) []byte {
	return []byte("vault.entry:" + address + ":" + string(alg))
}

func b64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func sealedBox(nonce, ct, tag []byte) model.SealedBox {
	return model.SealedBox{Nonce: b64(nonce), CipherText: b64(ct), AuthTag: b64(tag)}
}

func openBox(box model.SealedBox) (nonce, ct, tag []byte, err error) {
	if nonce, err = base64.StdEncoding.DecodeString(box.Nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: bad nonce", ErrCorruptVault)
	}
	if ct, err = base64.StdEncoding.DecodeString(box.CipherText); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: bad ciphertext", ErrCorruptVault)
	}
	if tag, err = base64.StdEncoding.DecodeString(box.AuthTag); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: bad auth tag", ErrCorruptVault)
	}
	return nonce, ct, tag, nil
}
