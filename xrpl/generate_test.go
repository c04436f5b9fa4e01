package xrpl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xrplto/wallet/internal/model"
)

type fakeAuthenticator struct {
	registerErr error
	assertErr   error
	registered  int
	asserted    int
}

func (f *fakeAuthenticator) Register(ctx context.Context) error {
	f.registered++
	return f.registerErr
}

func (f *fakeAuthenticator) Assert(ctx context.Context) error {
	f.asserted++
	return f.assertErr
}

type blockingAuthenticator struct{}

func (blockingAuthenticator) Register(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingAuthenticator) Assert(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestGenerateWalletIsNotDeterministic(t *testing.T) {
	auth := &fakeAuthenticator{}
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		kp, err := GenerateWallet(context.Background(), auth)
		require.NoError(t, err)
		require.Equal(t, model.AlgorithmEd25519, kp.Algorithm)
		require.True(t, IsValidAddress(kp.Address))
		require.False(t, seen[kp.Address], "duplicate wallet generated")
		seen[kp.Address] = true
	}
	require.Equal(t, 16, auth.registered)
}

func TestGenerateWalletCeremonyFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "cancelled", err: ErrAuthCancelled, wantErr: ErrAuthCancelled},
		{name: "context cancelled", err: context.Canceled, wantErr: ErrAuthCancelled},
		{name: "deadline", err: context.DeadlineExceeded, wantErr: ErrAuthTimeout},
		{name: "platform error", err: errors.New("NotAllowedError"), wantErr: ErrAuthUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kp, err := GenerateWallet(context.Background(), &fakeAuthenticator{registerErr: tt.err})
			require.Nil(t, kp)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, ErrAuthCeremonyFailed)
		})
	}
}

func TestGenerateWalletTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	kp, err := GenerateWallet(ctx, blockingAuthenticator{})
	require.Nil(t, kp)
	require.ErrorIs(t, err, ErrAuthTimeout)
}

func TestGenerateWalletWithoutAuthenticator(t *testing.T) {
	_, err := GenerateWallet(context.Background(), nil)
	require.ErrorIs(t, err, ErrAuthUnavailable)
}

func TestUnlockGate(t *testing.T) {
	auth := &fakeAuthenticator{}
	require.NoError(t, UnlockGate(context.Background(), auth))
	require.Equal(t, 1, auth.asserted)

	auth.assertErr = errors.New("no credential")
	require.ErrorIs(t, UnlockGate(context.Background(), auth), ErrAuthCeremonyFailed)
}
