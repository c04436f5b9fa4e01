package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/xrplto/wallet/internal/client"
	"github.com/xrplto/wallet/internal/crypto"
	"github.com/xrplto/wallet/internal/model"
	"github.com/xrplto/wallet/internal/pairing"
	"github.com/xrplto/wallet/internal/vault"
	"github.com/xrplto/wallet/xrpl"
)

func newAPI(t *testing.T, h http.HandlerFunc) *client.Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return client.New(srv.URL, time.Second)
}

func TestNew(t *testing.T) {
	api := client.New("http://localhost", time.Second)
	for _, p := range []model.Provider{model.ProviderXaman, model.ProviderGemWallet, model.ProviderCrossmark} {
		a, err := New(p, Deps{API: api})
		require.NoError(t, err)
		require.Equal(t, p, a.Provider())

		_, err = New(p, Deps{})
		require.Error(t, err)
	}

	a, err := New(model.ProviderDevice, Deps{Vault: &memStore{}})
	require.NoError(t, err)
	require.Equal(t, model.ProviderDevice, a.Provider())

	_, err = New("ledger", Deps{API: api})
	require.Error(t, err)
}

type pushServer struct {
	pendingPolls int
	status       string

	polls     atomic.Int32
	cancelled atomic.Int32
	loggedOut atomic.Int32
}

func (s *pushServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/account/login":
			w.Write([]byte(`{"uuid":"p1","qrUrl":"https://q/p1.png","next":{"always":"xumm://p1"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/account/login/p1":
			n := int(s.polls.Add(1))
			switch {
			case n <= s.pendingPolls:
				w.Write([]byte(`{}`))
			case s.status != "":
				w.Write([]byte(`{"status":"` + s.status + `"}`))
			default:
				w.Write([]byte(`{"profile":{"address":"rPush","token":"tok"}}`))
			}
		case r.Method == http.MethodDelete && r.URL.Path == "/account/cancellogin/p1":
			s.cancelled.Add(1)
		case r.Method == http.MethodDelete && r.URL.Path == "/account/logout/rPush/tok":
			s.loggedOut.Add(1)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}
}

type connectResult struct {
	profile *model.AccountProfile
	err     error
}

// connectWithClock runs Connect and keeps advancing the mock clock until it returns.
func connectWithClock(t *testing.T, ctx context.Context, a Adapter, mock *clock.Mock) connectResult {
	t.Helper()
	done := make(chan connectResult, 1)
	go func() {
		p, err := a.Connect(ctx)
		done <- connectResult{p, err}
	}()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-done:
			return r
		case <-deadline:
			t.Fatal("connect did not return")
		case <-time.After(2 * time.Millisecond):
			mock.Add(pairing.DefaultPollInterval)
		}
	}
}

func TestPushConnect(t *testing.T) {
	srv := &pushServer{pendingPolls: 2}
	mock := clock.NewMock()

	var shown *pairing.Session
	a, err := New(model.ProviderXaman, Deps{
		API:       newAPI(t, srv.handler(t)),
		Pairing:   pairing.Options{Clock: mock},
		OnPairing: func(s *pairing.Session) { shown = s },
	})
	require.NoError(t, err)

	r := connectWithClock(t, context.Background(), a, mock)
	require.NoError(t, r.err)
	require.Equal(t, &model.AccountProfile{Address: "rPush", Provider: model.ProviderXaman, SessionToken: "tok"}, r.profile)
	require.EqualValues(t, 3, srv.polls.Load())

	require.NotNil(t, shown)
	require.Equal(t, "xumm://p1", shown.DeepLink)
	require.Equal(t, "https://q/p1.png", shown.QRPayload)

	require.NoError(t, a.Disconnect(context.Background(), r.profile))
	require.EqualValues(t, 1, srv.loggedOut.Load())
}

func TestPushOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		server  *pushServer
		opts    pairing.Options
		wantErr error
	}{
		{name: "rejected", server: &pushServer{status: "rejected"}, wantErr: ErrUserDenied},
		{name: "server expired", server: &pushServer{status: "expired"}, wantErr: ErrSessionExpired},
		{name: "attempts exhausted", server: &pushServer{pendingPolls: 1000}, opts: pairing.Options{MaxAttempts: 3}, wantErr: ErrSessionExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := clock.NewMock()
			tt.opts.Clock = mock
			a, err := New(model.ProviderXaman, Deps{API: newAPI(t, tt.server.handler(t)), Pairing: tt.opts})
			require.NoError(t, err)

			r := connectWithClock(t, context.Background(), a, mock)
			require.ErrorIs(t, r.err, tt.wantErr)
			require.Nil(t, r.profile)
		})
	}
}

func TestPushCancelledByContext(t *testing.T) {
	srv := &pushServer{pendingPolls: 1000}
	mock := clock.NewMock()
	ctx, cancel := context.WithCancel(context.Background())

	a, err := New(model.ProviderXaman, Deps{
		API:       newAPI(t, srv.handler(t)),
		Pairing:   pairing.Options{Clock: mock},
		OnPairing: func(*pairing.Session) { cancel() },
	})
	require.NoError(t, err)

	r := connectWithClock(t, ctx, a, mock)
	require.ErrorIs(t, r.err, ErrCancelled)
	require.Eventually(t, func() bool { return srv.cancelled.Load() == 1 }, time.Second, time.Millisecond)
}

func TestPushCreateFailure(t *testing.T) {
	a, err := New(model.ProviderXaman, Deps{API: newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})})
	require.NoError(t, err)

	_, err = a.Connect(context.Background())
	require.ErrorIs(t, err, ErrServerRejected)
}

type fakeExtension struct {
	installed bool
	address   string
	publicKey string
	keyErr    error
	signErr   error

	signed string
}

func (e *fakeExtension) Installed(context.Context) bool { return e.installed }

func (e *fakeExtension) PublicKey(context.Context) (string, string, error) {
	return e.address, e.publicKey, e.keyErr
}

func (e *fakeExtension) SignMessage(_ context.Context, message string) (string, error) {
	if e.signErr != nil {
		return "", e.signErr
	}
	e.signed = message
	return "sig(" + message + ")", nil
}

func extensionServer(t *testing.T, checkStatus int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/account/auth/gemwallet/nonce":
			w.Write([]byte(`{"token":"n-1"}`))
		case "/account/auth/crossmark/hash":
			w.Write([]byte(`{"hash":"h-1"}`))
		case "/account/auth/gemwallet/check-sign", "/account/auth/crossmark/check-sign":
			if checkStatus != http.StatusOK {
				http.Error(w, "bad signature", checkStatus)
				return
			}
			w.Write([]byte(`{"profile":{"address":"rExt","token":"t-ext"}}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}
}

func TestExtensionConnect(t *testing.T) {
	tests := []struct {
		provider model.Provider
		wantSign string
	}{
		{model.ProviderGemWallet, "n-1"},
		{model.ProviderCrossmark, "h-1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			ext := &fakeExtension{installed: true, address: "rExt", publicKey: "02AB"}
			a, err := New(tt.provider, Deps{
				API:       newAPI(t, extensionServer(t, http.StatusOK)),
				GemWallet: ext,
				Crossmark: ext,
			})
			require.NoError(t, err)

			profile, err := a.Connect(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.wantSign, ext.signed)
			require.Equal(t, &model.AccountProfile{Address: "rExt", Provider: tt.provider, SessionToken: "t-ext"}, profile)
		})
	}
}

func TestExtensionFailures(t *testing.T) {
	tests := []struct {
		name    string
		ext     Extension
		status  int
		wantErr error
	}{
		{name: "missing", ext: nil, status: http.StatusOK, wantErr: ErrNotInstalled},
		{name: "not installed", ext: &fakeExtension{}, status: http.StatusOK, wantErr: ErrNotInstalled},
		{name: "key refused", ext: &fakeExtension{installed: true, keyErr: errors.New("user closed popup")}, status: http.StatusOK, wantErr: ErrUserDenied},
		{name: "no account", ext: &fakeExtension{installed: true}, status: http.StatusOK, wantErr: ErrUserDenied},
		{name: "sign refused", ext: &fakeExtension{installed: true, address: "rExt", publicKey: "02AB", signErr: errors.New("declined")}, status: http.StatusOK, wantErr: ErrUserDenied},
		{name: "server rejects", ext: &fakeExtension{installed: true, address: "rExt", publicKey: "02AB"}, status: http.StatusUnauthorized, wantErr: ErrServerRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(model.ProviderGemWallet, Deps{
				API:       newAPI(t, extensionServer(t, tt.status)),
				GemWallet: tt.ext,
			})
			require.NoError(t, err)

			profile, err := a.Connect(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, profile)
		})
	}
}

func TestExtensionBadChallengeIsServerRejection(t *testing.T) {
	for name, body := range map[string]string{
		"empty token": `{}`,
		"not json":    `<html>maintenance</html>`,
	} {
		t.Run(name, func(t *testing.T) {
			a, err := New(model.ProviderGemWallet, Deps{
				API: newAPI(t, func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte(body))
				}),
				GemWallet: &fakeExtension{installed: true, address: "rExt", publicKey: "02AB"},
			})
			require.NoError(t, err)

			_, err = a.Connect(context.Background())
			require.ErrorIs(t, err, ErrServerRejected)
			require.NotErrorIs(t, err, ErrNetwork)
		})
	}
}

func TestExtensionNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a, err := New(model.ProviderCrossmark, Deps{
		API:       client.New(url, time.Second),
		Crossmark: &fakeExtension{installed: true, address: "rExt", publicKey: "02AB"},
	})
	require.NoError(t, err)

	_, err = a.Connect(context.Background())
	require.ErrorIs(t, err, ErrNetwork)
	require.ErrorIs(t, err, client.ErrUnreachable)
}

func TestDisconnectWithoutSession(t *testing.T) {
	var calls atomic.Int32
	a, err := New(model.ProviderGemWallet, Deps{API: newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})})
	require.NoError(t, err)

	require.NoError(t, a.Disconnect(context.Background(), nil))
	require.NoError(t, a.Disconnect(context.Background(), &model.AccountProfile{Address: "rExt"}))
	require.Zero(t, calls.Load())
}

type memStore struct {
	mu   sync.Mutex
	data []byte
}

func (s *memStore) Load() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return nil, vault.ErrNoVault
	}
	return append([]byte(nil), s.data...), nil
}

func (s *memStore) Save(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

type fakeAuthenticator struct {
	registerErr error
	assertErr   error
	registers   int
	asserts     int
}

func (a *fakeAuthenticator) Register(context.Context) error {
	a.registers++
	return a.registerErr
}

func (a *fakeAuthenticator) Assert(context.Context) error {
	a.asserts++
	return a.assertErr
}

var strongPassphrase = strings.Repeat("Tr0ub4dor&3-horse-", 2)

func passphraseOf(p string) func(string) ([]byte, error) {
	return func(string) ([]byte, error) {
		return []byte(p), nil
	}
}

func TestDeviceEnrollThenUnlock(t *testing.T) {
	store := &memStore{}
	auth := &fakeAuthenticator{}
	deps := Deps{
		Authenticator: auth,
		Vault:         store,
		VaultOptions:  []vault.Option{vault.WithScryptLogN(crypto.MinLogN)},
		Passphrase:    passphraseOf(strongPassphrase),
	}
	a, err := New(model.ProviderDevice, deps)
	require.NoError(t, err)

	first, err := a.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, xrpl.IsValidAddress(first.Address))
	require.Equal(t, model.ProviderDevice, first.Provider)
	require.Equal(t, string(model.AlgorithmEd25519), first.Extra["algorithm"])
	require.Equal(t, 1, auth.registers)
	require.NotContains(t, string(store.data), strongPassphrase)

	second, err := a.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.Address, second.Address)
	require.Equal(t, 1, auth.asserts)
	require.Equal(t, 1, auth.registers)

	require.NoError(t, a.Disconnect(context.Background(), second))
}

func TestDeviceFailures(t *testing.T) {
	t.Run("ceremony cancelled", func(t *testing.T) {
		store := &memStore{}
		a, err := New(model.ProviderDevice, Deps{
			Authenticator: &fakeAuthenticator{registerErr: context.Canceled},
			Vault:         store,
			Passphrase:    passphraseOf(strongPassphrase),
		})
		require.NoError(t, err)

		_, err = a.Connect(context.Background())
		require.ErrorIs(t, err, xrpl.ErrAuthCancelled)
		require.Empty(t, store.data)
	})

	t.Run("weak passphrase", func(t *testing.T) {
		a, err := New(model.ProviderDevice, Deps{
			Authenticator: &fakeAuthenticator{},
			Vault:         &memStore{},
			Passphrase:    passphraseOf("password"),
		})
		require.NoError(t, err)

		_, err = a.Connect(context.Background())
		require.ErrorIs(t, err, vault.ErrWeakPassphrase)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		store := &memStore{}
		deps := Deps{
			Authenticator: &fakeAuthenticator{},
			Vault:         store,
			VaultOptions:  []vault.Option{vault.WithScryptLogN(crypto.MinLogN)},
			Passphrase:    passphraseOf(strongPassphrase),
		}
		a, err := New(model.ProviderDevice, deps)
		require.NoError(t, err)
		_, err = a.Connect(context.Background())
		require.NoError(t, err)

		deps.Passphrase = passphraseOf(strongPassphrase + "x")
		a, err = New(model.ProviderDevice, deps)
		require.NoError(t, err)
		_, err = a.Connect(context.Background())
		require.ErrorIs(t, err, vault.ErrWrongPassphrase)
	})

	t.Run("unknown address", func(t *testing.T) {
		store := &memStore{}
		deps := Deps{
			Authenticator: &fakeAuthenticator{},
			Vault:         store,
			VaultOptions:  []vault.Option{vault.WithScryptLogN(crypto.MinLogN)},
			Passphrase:    passphraseOf(strongPassphrase),
		}
		a, err := New(model.ProviderDevice, deps)
		require.NoError(t, err)
		_, err = a.Connect(context.Background())
		require.NoError(t, err)

		deps.DeviceAddress = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
		a, err = New(model.ProviderDevice, deps)
		require.NoError(t, err)
		_, err = a.Connect(context.Background())
		require.ErrorIs(t, err, vault.ErrEntryNotFound)
	})
}
