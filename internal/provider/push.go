package provider

import (
	"context"
	"fmt"

	"github.com/xrplto/wallet/internal/model"
	"github.com/xrplto/wallet/internal/pairing"
)

// pushAdapter authenticates through a mobile signer that scans a QR code
// or follows a deep link, then polls until the signer answers.
type pushAdapter struct {
	api       API
	opts      pairing.Options
	onPairing func(*pairing.Session)
}

func (a *pushAdapter) Provider() model.Provider {
	return model.ProviderXaman
}

func (a *pushAdapter) Connect(ctx context.Context) (*model.AccountProfile, error) {
	s, err := pairing.Initiate(ctx, a.api, model.ProviderXaman, a.opts)
	if err != nil {
		return nil, apiError(err)
	}
	if a.onPairing != nil {
		a.onPairing(s)
	}

	// Cancelling ctx cancels the session, which closes Done.
	if err := s.StartPolling(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	<-s.Done()

	switch st := s.State(); st {
	case pairing.StateConfirmed:
		return s.Profile(), nil
	case pairing.StateRejected:
		return nil, ErrUserDenied
	case pairing.StateExpired:
		return nil, ErrSessionExpired
	default:
		return nil, ErrCancelled
	}
}

func (a *pushAdapter) Disconnect(ctx context.Context, profile *model.AccountProfile) error {
	return logout(ctx, a.api, profile)
}
