package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xrplto/wallet/internal/client"
	"github.com/xrplto/wallet/internal/handler"
	"github.com/xrplto/wallet/internal/logging"
	"github.com/xrplto/wallet/internal/model"
	"github.com/xrplto/wallet/internal/pairing"
	"github.com/xrplto/wallet/internal/vault"
)

func newTestRouter(t *testing.T) http.Handler {
	wallet, err := handler.NewWalletHandler(vault.NewFileStore(t.TempDir() + "/wallet.vault"))
	require.NoError(t, err)
	pairingHandler, err := handler.NewPairingHandler(context.Background(), client.New("http://127.0.0.1:0", 0), pairing.Options{})
	require.NoError(t, err)
	return NewRouter(wallet, pairingHandler)
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vault/entries", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, rec.Header().Get(model.RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/vault/entries", nil)
	req.Header.Set(model.RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, "abc", rec.Header().Get(model.RequestIDHeader))

	var body model.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "abc", body.RequestID)
	require.Equal(t, "not_found", body.Code)
}

func TestMethodRouting(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/seed/validate", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestLogOmitsBody(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	require.NoError(t, logging.Init("info", false))
	t.Cleanup(func() {
		logging.SetOutput(os.Stderr)
		require.NoError(t, logging.Init("warn", false))
	})

	router := newTestRouter(t)
	const seed = "snoPBrXtMeMyMHUVTgbuqAfg1SUTb"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/seed/validate", strings.NewReader(`{"seed":"`+seed+`"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	out := buf.String()
	require.Contains(t, out, "/seed/validate")
	require.NotContains(t, out, seed)
}
