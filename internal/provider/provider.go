package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/xrplto/wallet/internal/client"
	"github.com/xrplto/wallet/internal/logging"
	"github.com/xrplto/wallet/internal/model"
	"github.com/xrplto/wallet/internal/pairing"
	"github.com/xrplto/wallet/internal/vault"
	"github.com/xrplto/wallet/xrpl"
)

var (
	ErrNotInstalled   = errors.New("wallet extension not installed")
	ErrUserDenied     = errors.New("request denied by user")
	ErrServerRejected = errors.New("server rejected authentication")
	ErrNetwork        = errors.New("network error")
	ErrSessionExpired = errors.New("pairing session expired")
	ErrCancelled      = errors.New("connect cancelled")
)

// Adapter connects an account through one provider.
type Adapter interface {
	Provider() model.Provider
	Connect(ctx context.Context) (*model.AccountProfile, error)
	Disconnect(ctx context.Context, profile *model.AccountProfile) error
}

// API is the part of the xrpl.to account API the adapters need.
// *client.Client implements it.
type API interface {
	pairing.Backend
	Logout(ctx context.Context, account, sessionToken string) error
	Nonce(ctx context.Context, address, publicKey string) (string, error)
	Hash(ctx context.Context, address, publicKey string) (string, error)
	CheckSign(ctx context.Context, ext string, req model.CheckSignRequest) (*model.AccountProfile, error)
}

var _ API = (*client.Client)(nil)

// Deps carries everything an adapter may need. Each provider uses a subset.
type Deps struct {
	API API

	GemWallet Extension
	Crossmark Extension

	// Device provider.
	Authenticator xrpl.Authenticator
	Vault         vault.Store
	VaultOptions  []vault.Option
	// Passphrase returns the vault passphrase. The adapter clears the slice.
	Passphrase func(prompt string) ([]byte, error)
	// DeviceAddress selects a vault entry; empty means the first one.
	DeviceAddress string

	// Push provider.
	Pairing pairing.Options
	// OnPairing is called with the initiated session, before polling
	// starts, so the caller can show its QR code or deep link.
	OnPairing func(*pairing.Session)
}

// New returns the adapter for p.
func New(p model.Provider, deps Deps) (Adapter, error) {
	switch p {
	case model.ProviderXaman:
		if deps.API == nil {
			return nil, errors.New("xaman provider requires an API client")
		}
		return &pushAdapter{api: deps.API, opts: deps.Pairing, onPairing: deps.OnPairing}, nil
	case model.ProviderGemWallet:
		if deps.API == nil {
			return nil, errors.New("gemwallet provider requires an API client")
		}
		return newGemWallet(deps.API, deps.GemWallet), nil
	case model.ProviderCrossmark:
		if deps.API == nil {
			return nil, errors.New("crossmark provider requires an API client")
		}
		return newCrossmark(deps.API, deps.Crossmark), nil
	case model.ProviderDevice:
		if deps.Vault == nil {
			return nil, errors.New("device provider requires a vault store")
		}
		return &deviceAdapter{
			auth:       deps.Authenticator,
			store:      deps.Vault,
			opts:       deps.VaultOptions,
			passphrase: deps.Passphrase,
			address:    deps.DeviceAddress,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %q", p)
	}
}

// apiError classifies a failure of the account API.
func apiError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	case client.IsStatusError(err):
		return fmt.Errorf("%w: %w", ErrServerRejected, err)
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
}

// logout ends the server session behind profile. Profiles without a session
// token have nothing to end.
func logout(ctx context.Context, api API, profile *model.AccountProfile) error {
	if profile == nil || profile.SessionToken == "" {
		return nil
	}
	if err := api.Logout(ctx, profile.Address, profile.SessionToken); err != nil {
		logging.Component("provider").
			WithField("provider", profile.Provider).
			WithError(err).
			Warn("logout failed")
		return apiError(err)
	}
	return nil
}
