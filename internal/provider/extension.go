package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/xrplto/wallet/internal/client"
	"github.com/xrplto/wallet/internal/model"
)

// Extension is a browser wallet extension reachable from the host.
type Extension interface {
	Installed(ctx context.Context) bool
	// PublicKey asks the user to share their address and public key.
	PublicKey(ctx context.Context) (address, publicKey string, err error)
	// SignMessage asks the user to sign message and returns the signature.
	SignMessage(ctx context.Context, message string) (string, error)
}

// extensionAdapter runs the challenge/sign/verify flow shared by the
// browser extensions. Nothing is retried.
type extensionAdapter struct {
	provider model.Provider
	path     string
	ext      Extension
	api      API

	challenge func(ctx context.Context, address, publicKey string) (string, error)
	// attach puts the signed challenge into the check-sign request.
	attach func(req *model.CheckSignRequest, challenge string)
}

func newGemWallet(api API, ext Extension) *extensionAdapter {
	return &extensionAdapter{
		provider:  model.ProviderGemWallet,
		path:      client.ExtensionGemWallet,
		ext:       ext,
		api:       api,
		challenge: api.Nonce,
		attach: func(req *model.CheckSignRequest, token string) {
			req.Token = token
		},
	}
}

func newCrossmark(api API, ext Extension) *extensionAdapter {
	return &extensionAdapter{
		provider:  model.ProviderCrossmark,
		path:      client.ExtensionCrossmark,
		ext:       ext,
		api:       api,
		challenge: api.Hash,
		attach: func(req *model.CheckSignRequest, hash string) {
			req.Hash = hash
		},
	}
}

func (a *extensionAdapter) Provider() model.Provider {
	return a.provider
}

func (a *extensionAdapter) Connect(ctx context.Context) (*model.AccountProfile, error) {
	if a.ext == nil || !a.ext.Installed(ctx) {
		return nil, ErrNotInstalled
	}

	address, publicKey, err := a.ext.PublicKey(ctx)
	if err != nil {
		return nil, extensionError(err)
	}
	if address == "" || publicKey == "" {
		return nil, fmt.Errorf("%w: no account shared", ErrUserDenied)
	}

	challenge, err := a.challenge(ctx, address, publicKey)
	if err != nil {
		return nil, apiError(err)
	}

	signature, err := a.ext.SignMessage(ctx, challenge)
	if err != nil {
		return nil, extensionError(err)
	}
	if signature == "" {
		return nil, fmt.Errorf("%w: empty signature", ErrUserDenied)
	}

	req := model.CheckSignRequest{
		Address:   address,
		PublicKey: publicKey,
		Signature: signature,
	}
	a.attach(&req, challenge)

	profile, err := a.api.CheckSign(ctx, a.path, req)
	if err != nil {
		return nil, apiError(err)
	}
	profile.Provider = a.provider
	return profile, nil
}

func (a *extensionAdapter) Disconnect(ctx context.Context, profile *model.AccountProfile) error {
	return logout(ctx, a.api, profile)
}

// extensionError classifies a failure reported by the extension itself.
func extensionError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return fmt.Errorf("%w: %w", ErrUserDenied, err)
}
