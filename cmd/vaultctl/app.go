package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xrplto/wallet/internal/config"
	"github.com/xrplto/wallet/internal/crypto"
	"github.com/xrplto/wallet/internal/logging"
	"github.com/xrplto/wallet/internal/vault"
	"github.com/xrplto/wallet/xrpl"
)

const ceremonyTimeout = 60 * time.Second

// app holds what the commands share. Tests swap the terminal parts.
type app struct {
	vaultPath string
	logN      uint8
	apiURL    string
	timeout   time.Duration

	readPassphrase func(prompt string) ([]byte, error)
	auth           xrpl.Authenticator
}

func newApp() *app {
	return &app{
		readPassphrase: config.PromptPassphrase,
		auth:           &terminalAuthenticator{in: bufio.NewReader(os.Stdin), out: os.Stderr},
	}
}

func newRootCmd(a *app) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "vaultctl",
		Short:         "Manage the local XRPL wallet vault",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(); err != nil {
				return err
			}
			cfg := config.Get()
			if a.vaultPath == "" {
				a.vaultPath = config.GetVaultFilePath()
			}
			if a.logN == 0 {
				a.logN = cfg.VaultLogN
			}
			a.apiURL = config.GetAPIBaseURL()
			a.timeout = cfg.HTTPTimeout
			if logLevel == "" {
				logLevel = "warn"
			}
			return logging.Init(logLevel, false)
		},
	}
	root.PersistentFlags().StringVarP(&a.vaultPath, "vault", "f", "", "Vault file (default $VAULT_FILE_PATH)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level")

	root.AddCommand(
		initCmd(a),
		importCmd(a),
		listCmd(a),
		removeCmd(a),
		generateCmd(a),
		validateCmd(a),
		connectCmd(a),
	)
	return root
}

func (a *app) store() *vault.FileStore {
	return vault.NewFileStore(a.vaultPath)
}

func (a *app) vaultOptions() []vault.Option {
	if a.logN < crypto.MinLogN {
		return nil
	}
	return []vault.Option{vault.WithScryptLogN(a.logN)}
}

// unlock loads the vault and derives its key from a prompted passphrase.
func (a *app) unlock() (*vault.Vault, *vault.DerivedKey, error) {
	v, err := vault.Load(a.store())
	if err != nil {
		if errors.Is(err, vault.ErrNoVault) {
			return nil, nil, fmt.Errorf("%w: run 'vaultctl init' first", err)
		}
		return nil, nil, err
	}

	pass, err := a.readPassphrase("Vault passphrase: ")
	if err != nil {
		return nil, nil, err
	}
	defer clear(pass)

	key, err := v.Unlock(pass)
	if err != nil {
		return nil, nil, err
	}
	return v, key, nil
}

// terminalAuthenticator stands in for a platform authenticator: the user
// confirms each ceremony on the terminal.
type terminalAuthenticator struct {
	in  *bufio.Reader
	out io.Writer
}

func (t *terminalAuthenticator) Register(ctx context.Context) error {
	return t.confirm(ctx, "Create a new device wallet? [y/N]: ")
}

func (t *terminalAuthenticator) Assert(ctx context.Context) error {
	return t.confirm(ctx, "Unlock the device wallet? [y/N]: ")
}

func (t *terminalAuthenticator) confirm(ctx context.Context, prompt string) error {
	fmt.Fprint(t.out, prompt)

	answer := make(chan string, 1)
	go func() {
		line, _ := t.in.ReadString('\n')
		answer <- strings.ToLower(strings.TrimSpace(line))
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return ctx.Err()
	case a := <-answer:
		if a != "y" && a != "yes" {
			return xrpl.ErrAuthCancelled
		}
		return nil
	}
}
