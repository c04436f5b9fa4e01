package vault

import "errors"

var (
	ErrWrongPassphrase  = errors.New("wrong passphrase")
	ErrEntryNotFound    = errors.New("vault entry not found")
	ErrEntryExists      = errors.New("vault entry already exists")
	ErrDecryptionFailed = errors.New("vault entry decryption failed")
	ErrCorruptVault     = errors.New("vault is corrupt")
	ErrNoVault          = errors.New("vault does not exist")
	ErrWeakPassphrase   = errors.New("passphrase is too weak")
)
