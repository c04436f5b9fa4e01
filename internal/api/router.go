package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/xrplto/wallet/internal/client"
	"github.com/xrplto/wallet/internal/config"
	"github.com/xrplto/wallet/internal/handler"
	"github.com/xrplto/wallet/internal/logging"
	"github.com/xrplto/wallet/internal/model"
	"github.com/xrplto/wallet/internal/pairing"
	"github.com/xrplto/wallet/internal/vault"
)

// SetupRouter sets up router with handlers built from the global config.
// Pairing sessions are cancelled when ctx is done.
func SetupRouter(ctx context.Context) (http.Handler, error) {
	cfg := config.Get()

	walletHandler, err := handler.NewWalletHandler(
		vault.NewFileStore(config.GetVaultFilePath()),
		vault.WithScryptLogN(cfg.VaultLogN),
	)
	if err != nil {
		return nil, err
	}

	pairingHandler, err := handler.NewPairingHandler(ctx,
		client.New(config.GetAPIBaseURL(), cfg.HTTPTimeout),
		pairing.Options{PollInterval: cfg.PollInterval, MaxAttempts: cfg.PollAttempts},
	)
	if err != nil {
		return nil, err
	}

	return NewRouter(walletHandler, pairingHandler), nil
}

// NewRouter wires handlers into a mux.
func NewRouter(wallet *handler.WalletHandler, pairings *handler.PairingHandler) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Seed and vault endpoints
	mux.HandleFunc("POST /seed/validate", wallet.ValidateSeed)
	mux.HandleFunc("POST /vault", wallet.CreateVault)
	mux.HandleFunc("GET /vault/entries", wallet.ListEntries)
	mux.HandleFunc("POST /vault/entries", wallet.ImportSeed)
	mux.HandleFunc("DELETE /vault/entries/{address}", wallet.RemoveEntry)

	// Pairing endpoints
	mux.HandleFunc("POST /pairing", pairings.Create)
	mux.HandleFunc("GET /pairing/{id}", pairings.Get)
	mux.HandleFunc("DELETE /pairing/{id}", pairings.Cancel)

	return withRequestLog(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLog tags each request with an id and logs its outcome.
// Bodies are never logged: they may carry seeds or passphrases.
func withRequestLog(next http.Handler) http.Handler {
	log := logging.Component("api")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(model.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(model.RequestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.WithFields(logging.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start),
		}).Info("request")
	})
}
