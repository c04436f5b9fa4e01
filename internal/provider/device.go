package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/xrplto/wallet/internal/logging"
	"github.com/xrplto/wallet/internal/model"
	"github.com/xrplto/wallet/internal/vault"
	"github.com/xrplto/wallet/xrpl"
)

// DeviceLabel is the vault label of wallets created by the device provider.
const DeviceLabel = "passkey"

// deviceAdapter signs in with a passkey-gated wallet kept in the local vault.
// The first connect creates the wallet; later connects unlock it.
type deviceAdapter struct {
	auth       xrpl.Authenticator
	store      vault.Store
	opts       []vault.Option
	passphrase func(prompt string) ([]byte, error)
	address    string
}

func (a *deviceAdapter) Provider() model.Provider {
	return model.ProviderDevice
}

func (a *deviceAdapter) Connect(ctx context.Context) (*model.AccountProfile, error) {
	v, err := vault.Load(a.store)
	if errors.Is(err, vault.ErrNoVault) {
		return a.enroll(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := xrpl.UnlockGate(ctx, a.auth); err != nil {
		return nil, err
	}
	key, err := a.unlock(v, "Vault passphrase: ")
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	entries := v.Entries()
	if len(entries) == 0 {
		return a.addWallet(ctx, v, key)
	}

	address := a.address
	if address == "" {
		address = entries[0].Address
	}
	kp, err := v.DecryptEntry(key, address)
	if err != nil {
		return nil, err
	}
	defer kp.Wipe()

	entry, _ := v.Entry(address)
	return deviceProfile(kp, entry.Label), nil
}

// enroll creates the vault and its first wallet.
func (a *deviceAdapter) enroll(ctx context.Context) (*model.AccountProfile, error) {
	kp, err := xrpl.GenerateWallet(ctx, a.auth)
	if err != nil {
		return nil, err
	}
	defer kp.Wipe()

	pass, err := a.readPassphrase("New vault passphrase: ")
	if err != nil {
		return nil, err
	}
	defer clear(pass)
	if err := vault.CheckPassphrase(pass); err != nil {
		return nil, err
	}

	v, err := vault.Create(pass, a.opts...)
	if err != nil {
		return nil, err
	}
	key, err := v.Unlock(pass)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	if _, err := v.AddEntry(key, kp, DeviceLabel); err != nil {
		return nil, err
	}
	if err := vault.Save(a.store, v); err != nil {
		return nil, err
	}

	logging.Component("provider").WithField("address", kp.Address).Info("device wallet created")
	return deviceProfile(kp, DeviceLabel), nil
}

func (a *deviceAdapter) addWallet(ctx context.Context, v *vault.Vault, key *vault.DerivedKey) (*model.AccountProfile, error) {
	kp, err := xrpl.GenerateWallet(ctx, a.auth)
	if err != nil {
		return nil, err
	}
	defer kp.Wipe()

	if _, err := v.AddEntry(key, kp, DeviceLabel); err != nil {
		return nil, err
	}
	if err := vault.Save(a.store, v); err != nil {
		return nil, err
	}
	return deviceProfile(kp, DeviceLabel), nil
}

func (a *deviceAdapter) unlock(v *vault.Vault, prompt string) (*vault.DerivedKey, error) {
	pass, err := a.readPassphrase(prompt)
	if err != nil {
		return nil, err
	}
	defer clear(pass)
	return v.Unlock(pass)
}

func (a *deviceAdapter) readPassphrase(prompt string) ([]byte, error) {
	if a.passphrase == nil {
		return nil, errors.New("no passphrase source configured")
	}
	pass, err := a.passphrase(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return pass, nil
}

// Disconnect is local only: there is no server session to end.
func (a *deviceAdapter) Disconnect(ctx context.Context, profile *model.AccountProfile) error {
	return nil
}

func deviceProfile(kp *xrpl.KeyPair, label string) *model.AccountProfile {
	return &model.AccountProfile{
		Address:  kp.Address,
		Provider: model.ProviderDevice,
		Extra: map[string]string{
			"algorithm": string(kp.Algorithm),
			"label":     label,
		},
	}
}
