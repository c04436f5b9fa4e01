package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xrplto/wallet/internal/logging"
	"github.com/xrplto/wallet/internal/model"
	"github.com/xrplto/wallet/internal/vault"
)

var log = logging.Component("handler")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, model.ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: w.Header().Get(model.RequestIDHeader),
	})
}

// writeVaultError maps vault errors to HTTP statuses.
func writeVaultError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrNoVault), errors.Is(err, vault.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, vault.ErrWrongPassphrase):
		writeError(w, http.StatusUnauthorized, "wrong_passphrase", err)
	case errors.Is(err, vault.ErrEntryExists):
		writeError(w, http.StatusConflict, "exists", err)
	case errors.Is(err, vault.ErrWeakPassphrase):
		writeError(w, http.StatusBadRequest, "weak_passphrase", err)
	default:
		// corrupt vault, decryption failure or I/O: details stay in the log
		log.WithError(err).Error("vault operation failed")
		writeError(w, http.StatusInternalServerError, "internal", errors.New("vault operation failed"))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return false
	}
	return true
}
