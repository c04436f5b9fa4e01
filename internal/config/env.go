package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"

	"github.com/xrplto/wallet/internal/crypto"
)

// Config contains all configuration parameters for the application.
// Note: passphrases are never part of the configuration. They are prompted per
// operation with PromptPassphrase and must be cleared by the caller.
type Config struct {
	Port          string        `envconfig:"PORT" default:"8080"`
	APIBaseURL    string        `envconfig:"XRPLTO_API_URL" default:"https://api.xrpl.to/api"`
	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	VaultFilePath string        `envconfig:"VAULT_FILE_PATH" default:"wallet.vault"`
	VaultLogN     uint8         `envconfig:"VAULT_SCRYPT_LOG_N" default:"18"`
	PollInterval  time.Duration `envconfig:"PAIRING_POLL_INTERVAL" default:"2s"`
	PollAttempts  int           `envconfig:"PAIRING_MAX_ATTEMPTS" default:"150"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON       bool          `envconfig:"LOG_JSON" default:"false"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

func (c *Config) validate() error {
	if c.PollInterval <= 0 {
		return errors.New("PAIRING_POLL_INTERVAL must be positive")
	}
	if c.PollAttempts <= 0 {
		return errors.New("PAIRING_MAX_ATTEMPTS must be positive")
	}
	if c.VaultLogN < crypto.MinConfigLogN || c.VaultLogN > crypto.MaxLogN {
		return fmt.Errorf("VAULT_SCRYPT_LOG_N must be within [%d, %d], got %d",
			crypto.MinConfigLogN, crypto.MaxLogN, c.VaultLogN)
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetVaultFilePath returns path to the vault file from configuration
func GetVaultFilePath() string {
	return Get().VaultFilePath
}

// GetAPIBaseURL returns the xrpl.to API base URL from configuration
func GetAPIBaseURL() string {
	return Get().APIBaseURL
}

// PromptPassphrase prompts the user for a passphrase in the terminal.
// The input is read without echoing. The caller owns the returned slice and
// must clear it once the vault operation that needed it has returned.
func PromptPassphrase(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run interactively to enter passphrase")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	return raw, nil
}
