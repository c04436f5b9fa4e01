package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xrplto/wallet/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second)
}

func TestCreateLogin(t *testing.T) {
	for name, next := range map[string]string{
		"string": `"xumm://sign/abc"`,
		"object": `{"always":"xumm://sign/abc"}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/account/login", r.URL.Path)
				w.Write([]byte(`{"uuid":"abc","qrUrl":"https://q/abc.png","next":` + next + `}`))
			})

			ticket, err := c.CreateLogin(context.Background())
			require.NoError(t, err)
			require.Equal(t, "abc", ticket.UUID)
			require.Equal(t, "https://q/abc.png", ticket.QRURL)
			require.Equal(t, model.NextLink("xumm://sign/abc"), ticket.Next)
		})
	}
}

func TestLoginStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/account/login/abc", r.URL.Path)
		w.Write([]byte(`{"profile":{"address":"rABC","token":"t1"}}`))
	})

	status, err := c.LoginStatus(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, &model.AccountProfile{Address: "rABC", SessionToken: "t1"}, status.Profile)
}

func TestCancelAndLogout(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.CancelLogin(context.Background(), "abc"))
	require.NoError(t, c.Logout(context.Background(), "rABC", "t1"))
	require.Equal(t, []string{"/account/cancellogin/abc", "/account/logout/rABC/t1"}, paths)
}

func TestChallenges(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "rABC", r.URL.Query().Get("address"))
		require.Equal(t, "02AB", r.URL.Query().Get("publicKey"))
		switch r.URL.Path {
		case "/account/auth/gemwallet/nonce":
			w.Write([]byte(`{"token":"nonce-1"}`))
		case "/account/auth/crossmark/hash":
			w.Write([]byte(`{"hash":"hash-1"}`))
		default:
			http.NotFound(w, r)
		}
	})

	token, err := c.Nonce(context.Background(), "rABC", "02AB")
	require.NoError(t, err)
	require.Equal(t, "nonce-1", token)

	hash, err := c.Hash(context.Background(), "rABC", "02AB")
	require.NoError(t, err)
	require.Equal(t, "hash-1", hash)
}

func TestEmptyChallenge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	_, err := c.Nonce(context.Background(), "rABC", "02AB")
	require.True(t, IsStatusError(err))

	_, err = c.Hash(context.Background(), "rABC", "02AB")
	require.True(t, IsStatusError(err))
}

func TestUndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})
	_, err := c.LoginStatus(context.Background(), "abc")
	require.True(t, IsStatusError(err))
	require.False(t, errors.Is(err, ErrUnreachable))
}

func TestCheckSign(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/account/auth/crossmark/check-sign", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req model.CheckSignRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, model.CheckSignRequest{Address: "rABC", PublicKey: "02AB", Signature: "sig", Hash: "h"}, req)
		w.Write([]byte(`{"profile":{"address":"rABC","token":"t2"}}`))
	})

	profile, err := c.CheckSign(context.Background(), ExtensionCrossmark, model.CheckSignRequest{
		Address: "rABC", PublicKey: "02AB", Signature: "sig", Hash: "h",
	})
	require.NoError(t, err)
	require.Equal(t, "t2", profile.SessionToken)
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "signature mismatch", http.StatusUnauthorized)
	})

	_, err := c.CheckSign(context.Background(), ExtensionGemWallet, model.CheckSignRequest{})
	require.True(t, IsStatusError(err))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusUnauthorized, se.StatusCode)
	require.Equal(t, "signature mismatch", se.Body)
	require.Equal(t, "/account/auth/gemwallet/check-sign", se.Path)
}

func TestCheckSignWithoutProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"profile":null}`))
	})
	_, err := c.CheckSign(context.Background(), ExtensionGemWallet, model.CheckSignRequest{})
	require.True(t, IsStatusError(err))
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).LoginStatus(context.Background(), "abc")
	require.ErrorIs(t, err, ErrUnreachable)
	require.False(t, IsStatusError(err))
}

func TestContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.LoginStatus(ctx, "abc")
	require.ErrorIs(t, err, context.Canceled)
}
