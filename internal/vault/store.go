package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xrplto/wallet/internal/common"
)

// Store persists the serialized vault. The vault package never writes on its own.
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileStore keeps the vault in a single file.
type FileStore struct {
	Path string
}

// NewFileStore returns a store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the vault file. A missing or empty file is ErrNoVault.
func (s *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoVault
		}
		return nil, fmt.Errorf("failed to read vault file: %w", err)
	}

	data = common.StripBOM(data)
	if len(data) == 0 {
		return nil, ErrNoVault
	}
	return data, nil
}

// Save replaces the vault file atomically with restrictive permissions.
func (s *FileStore) Save(data []byte) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vault-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp vault file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(common.WithBOM(data)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp vault file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp vault file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp vault file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace vault file: %w", err)
	}
	return nil
}

// Load reads and parses the vault held by store.
func Load(store Store) (*Vault, error) {
	data, err := store.Load()
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Save serializes v into store.
func Save(store Store, v *Vault) error {
	data, err := v.Marshal()
	if err != nil {
		return err
	}
	return store.Save(data)
}
