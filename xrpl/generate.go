package xrpl

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/xrplto/wallet/internal/model"
)

// PasskeyEntropyLen is how many random bytes a passkey wallet is generated from.
const PasskeyEntropyLen = 32

var (
	ErrAuthCeremonyFailed = errors.New("authenticator ceremony failed")
	ErrAuthUnavailable    = fmt.Errorf("%w: authenticator unavailable", ErrAuthCeremonyFailed)
	ErrAuthCancelled      = fmt.Errorf("%w: cancelled by user", ErrAuthCeremonyFailed)
	ErrAuthTimeout        = fmt.Errorf("%w: timed out", ErrAuthCeremonyFailed)
)

// Authenticator is a platform authenticator (passkey). It only gates wallet
// creation and unlock: nothing it returns feeds key derivation.
type Authenticator interface {
	// Register runs the create-credential ceremony.
	Register(ctx context.Context) error
	// Assert runs the get-assertion ceremony.
	Assert(ctx context.Context) error
}

// GenerateWallet runs the registration ceremony and, once it succeeds,
// generates a fresh ed25519 wallet from crypto/rand entropy.
// Wallets are not reconstructible from an assertion; losing the vault loses the wallet.
func GenerateWallet(ctx context.Context, auth Authenticator) (*KeyPair, error) {
	if auth == nil {
		return nil, ErrAuthUnavailable
	}
	if err := auth.Register(ctx); err != nil {
		return nil, ceremonyError(ctx, err)
	}

	entropy := make([]byte, PasskeyEntropyLen)
	defer clear(entropy)
	if _, err := io.ReadFull(rand.Reader, entropy); err != nil {
		return nil, fmt.Errorf("failed to read entropy: %w", err)
	}

	kp, err := KeyPairFromEntropy(entropy, model.AlgorithmEd25519)
	if err != nil {
		return nil, fmt.Errorf("failed to derive wallet: %w", err)
	}
	return kp, nil
}

// UnlockGate runs the assertion ceremony that must pass before a vault unlock.
func UnlockGate(ctx context.Context, auth Authenticator) error {
	if auth == nil {
		return ErrAuthUnavailable
	}
	if err := auth.Assert(ctx); err != nil {
		return ceremonyError(ctx, err)
	}
	return nil
}

// ceremonyError folds whatever the authenticator returned into the
// ErrAuthCeremonyFailed family.
func ceremonyError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrAuthCeremonyFailed):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrAuthTimeout
	case errors.Is(err, context.Canceled):
		return ErrAuthCancelled
	default:
		return fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
	}
}
