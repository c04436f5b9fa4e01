package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/xrplto/wallet/internal/client"
	"github.com/xrplto/wallet/internal/model"
	"github.com/xrplto/wallet/internal/pairing"
	"github.com/xrplto/wallet/internal/provider"
	"github.com/xrplto/wallet/internal/vault"
	"github.com/xrplto/wallet/xrpl"
)

func initCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.store()
			if _, err := store.Load(); err == nil {
				return fmt.Errorf("vault already exists: %s", store.Path)
			} else if !errors.Is(err, vault.ErrNoVault) {
				return err
			}

			pass, err := a.readPassphrase("New vault passphrase: ")
			if err != nil {
				return err
			}
			defer clear(pass)
			confirm, err := a.readPassphrase("Repeat passphrase: ")
			if err != nil {
				return err
			}
			defer clear(confirm)
			if !bytes.Equal(pass, confirm) {
				return errors.New("passphrases do not match")
			}
			if err := vault.CheckPassphrase(pass); err != nil {
				return err
			}

			v, err := vault.Create(pass, a.vaultOptions()...)
			if err != nil {
				return err
			}
			if err := vault.Save(store, v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Vault created: %s\n", store.Path)
			return nil
		},
	}
}

func importCmd(a *app) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a family seed into the vault",
		Long:  "Prompts for a family seed without echo, derives its account and stores the key encrypted in the vault.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := a.readPassphrase("Seed: ")
			if err != nil {
				return err
			}
			kp, err := xrpl.DeriveKeyPair(string(seed))
			clear(seed)
			if err != nil {
				return err
			}
			defer kp.Wipe()

			v, key, err := a.unlock()
			if err != nil {
				return err
			}
			defer key.Destroy()

			if _, err := v.AddEntry(key, kp, label); err != nil {
				return err
			}
			if err := vault.Save(a.store(), v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%s)\n", kp.Address, kp.Algorithm)
			return nil
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "", "Entry label")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List vault entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := vault.Load(a.store())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tADDRESS\tALGORITHM\tCREATED")
			for _, e := range v.Entries() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Label, e.Address, e.Algorithm, e.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func removeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <address>",
		Short: "Remove an entry from the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, key, err := a.unlock()
			if err != nil {
				return err
			}
			key.Destroy()

			v.RemoveEntry(args[0])
			if err := vault.Save(a.store(), v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func generateCmd(a *app) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new device-gated wallet into the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), ceremonyTimeout)
			defer cancel()

			kp, err := xrpl.GenerateWallet(ctx, a.auth)
			if err != nil {
				return err
			}
			defer kp.Wipe()

			v, key, err := a.unlock()
			if err != nil {
				return err
			}
			defer key.Destroy()

			if _, err := v.AddEntry(key, kp, label); err != nil {
				return err
			}
			if err := vault.Save(a.store(), v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", kp.Address)
			return nil
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", provider.DeviceLabel, "Entry label")
	return cmd
}

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a family seed without storing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := a.readPassphrase("Seed: ")
			if err != nil {
				return err
			}
			defer clear(seed)

			if err := xrpl.ValidateSeed(string(seed)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Valid %s seed\n", xrpl.AlgorithmOf(string(seed)))
			return nil
		},
	}
}

func connectCmd(a *app) *cobra.Command {
	var (
		providerName string
		address      string
	)
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Sign in through a provider and print the account profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := model.ParseProvider(providerName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			adapter, err := provider.New(p, provider.Deps{
				API:           client.New(a.apiURL, a.timeout),
				Authenticator: a.auth,
				Vault:         a.store(),
				VaultOptions:  a.vaultOptions(),
				Passphrase:    a.readPassphrase,
				DeviceAddress: address,
				OnPairing: func(s *pairing.Session) {
					fmt.Fprintf(out, "Scan %s or open %s\n", s.QRPayload, s.DeepLink)
				},
			})
			if err != nil {
				return err
			}

			profile, err := adapter.Connect(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(profile)
		},
	}
	cmd.Flags().StringVarP(&providerName, "provider", "p", string(model.ProviderXaman), "Provider: xaman, gemwallet, crossmark or device")
	cmd.Flags().StringVar(&address, "address", "", "Vault entry to use with the device provider")
	return cmd
}
