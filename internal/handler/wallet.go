package handler

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/xrplto/wallet/internal/common"
	"github.com/xrplto/wallet/internal/model"
	"github.com/xrplto/wallet/internal/vault"
	"github.com/xrplto/wallet/xrpl"
)

// WalletHandler serves seed validation and vault management.
type WalletHandler struct {
	store vault.Store
	opts  []vault.Option

	// mu serializes load-modify-save cycles on the vault file.
	mu sync.Mutex
}

// NewWalletHandler creates a new WalletHandler over store
func NewWalletHandler(store vault.Store, opts ...vault.Option) (*WalletHandler, error) {
	if store == nil {
		return nil, errors.New("vault store not set")
	}
	return &WalletHandler{store: store, opts: opts}, nil
}

// ValidateSeed handles POST /seed/validate
// @Summary      Validate a family seed
// @Description  Checks the seed format and reports its signing algorithm. The seed is never stored.
// @Tags         seed
// @Accept       json
// @Produce      json
// @Param        request  body      model.ValidateSeedRequest  true  "Seed"
// @Success      200      {object}  model.ValidateSeedResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /seed/validate [post]
func (h *WalletHandler) ValidateSeed(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateSeedRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := xrpl.ValidateSeed(req.Seed); err != nil {
		writeJSON(w, http.StatusOK, model.ValidateSeedResponse{Valid: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, model.ValidateSeedResponse{Valid: true, Algorithm: xrpl.AlgorithmOf(req.Seed)})
}

// CreateVault handles POST /vault
// @Summary      Create vault
// @Description  Creates an empty encrypted vault protected by the passphrase
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateVaultRequest  true  "Passphrase"
// @Success      200      {object}  model.GenerateResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /vault [post]
func (h *WalletHandler) CreateVault(w http.ResponseWriter, r *http.Request) {
	var req model.CreateVaultRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pass := []byte(req.Passphrase)
	defer clear(pass)

	if err := vault.CheckPassphrase(pass); err != nil {
		writeVaultError(w, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.store.Load(); err == nil {
		writeError(w, http.StatusConflict, "exists", errors.New("vault already exists"))
		return
	} else if !errors.Is(err, vault.ErrNoVault) {
		writeVaultError(w, err)
		return
	}

	v, err := vault.Create(pass, h.opts...)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	if err := vault.Save(h.store, v); err != nil {
		writeVaultError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Message: "Vault created successfully",
	})
}

// ListEntries handles GET /vault/entries
// @Summary      List vault entries
// @Description  Lists the public part of every wallet in the vault
// @Tags         vault
// @Produce      json
// @Success      200  {array}   model.EntryResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /vault/entries [get]
func (h *WalletHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	v, err := vault.Load(h.store)
	h.mu.Unlock()
	if err != nil {
		writeVaultError(w, err)
		return
	}

	entries := v.Entries()
	resp := make([]model.EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, model.EntryResponse{
			Label:     e.Label,
			Address:   e.Address,
			Algorithm: e.Algorithm,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ImportSeed handles POST /vault/entries
// @Summary      Import a seed
// @Description  Derives the wallet from a family seed and stores it encrypted in the vault
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.ImportSeedRequest  true  "Seed, label and vault passphrase"
// @Success      200      {object}  model.GenerateResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      401      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /vault/entries [post]
func (h *WalletHandler) ImportSeed(w http.ResponseWriter, r *http.Request) {
	var req model.ImportSeedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pass := []byte(req.Passphrase)
	defer clear(pass)

	kp, err := xrpl.DeriveKeyPair(req.Seed)
	req.Seed = ""
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_seed", err)
		return
	}
	defer kp.Wipe()

	h.mu.Lock()
	defer h.mu.Unlock()

	v, err := vault.Load(h.store)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	key, err := v.Unlock(pass)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	defer key.Destroy()

	if _, err := v.AddEntry(key, kp, req.Label); err != nil {
		writeVaultError(w, err)
		return
	}
	if err := vault.Save(h.store, v); err != nil {
		writeVaultError(w, err)
		return
	}

	qr, err := common.QRCodePNG(kp.Address, common.DefaultQRSize)
	if err != nil {
		log.WithError(err).Warn("failed to render address QR code")
	}
	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Message: "Wallet imported successfully",
		Address: kp.Address,
		QR:      qr,
	})
}

// RemoveEntry handles DELETE /vault/entries/{address}
// @Summary      Remove a vault entry
// @Description  Removes the wallet from the vault. Removing an absent address succeeds.
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        address  path      string                    true  "Classic address"
// @Param        request  body      model.RemoveEntryRequest  true  "Vault passphrase"
// @Success      200      {object}  model.GenerateResponse
// @Failure      401      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Router       /vault/entries/{address} [delete]
func (h *WalletHandler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	var req model.RemoveEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pass := []byte(req.Passphrase)
	defer clear(pass)

	h.mu.Lock()
	defer h.mu.Unlock()

	v, err := vault.Load(h.store)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	// only the passphrase holder may change the vault
	key, err := v.Unlock(pass)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	key.Destroy()

	v.RemoveEntry(address)
	if err := vault.Save(h.store, v); err != nil {
		writeVaultError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Message: "Wallet removed",
		Address: address,
	})
}
