package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/xrplto/wallet/internal/common"
	"github.com/xrplto/wallet/internal/model"
	"github.com/xrplto/wallet/internal/pairing"
)

// sessionRetention is how long a resolved session stays readable.
const sessionRetention = 5 * time.Minute

// PairingHandler runs push/QR pairing sessions for local clients.
type PairingHandler struct {
	backend pairing.Backend
	opts    pairing.Options

	// ctx bounds every polling loop; cancelling it cancels all sessions.
	ctx context.Context

	mu       sync.Mutex
	sessions map[string]*pairing.Session
}

// NewPairingHandler creates a new PairingHandler. Sessions live until ctx is done.
func NewPairingHandler(ctx context.Context, backend pairing.Backend, opts pairing.Options) (*PairingHandler, error) {
	if backend == nil {
		return nil, errors.New("pairing backend not set")
	}
	return &PairingHandler{
		backend:  backend,
		opts:     opts,
		ctx:      ctx,
		sessions: make(map[string]*pairing.Session),
	}, nil
}

// Create handles POST /pairing
// @Summary      Start a pairing
// @Description  Creates a push/QR pairing with the mobile signer and starts polling it
// @Tags         pairing
// @Produce      json
// @Success      200  {object}  model.PairingResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /pairing [post]
func (h *PairingHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := pairing.Initiate(r.Context(), h.backend, model.ProviderXaman, h.opts)
	if err != nil {
		log.WithError(err).Warn("failed to initiate pairing")
		writeError(w, http.StatusBadGateway, "provider", err)
		return
	}

	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	if err := s.StartPolling(h.ctx, h.retire); err != nil {
		h.remove(s.ID)
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}

	writeJSON(w, http.StatusOK, pairingResponse(s, true))
}

// Get handles GET /pairing/{id}
// @Summary      Get pairing state
// @Description  Reports the session state and, once confirmed, the account profile
// @Tags         pairing
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  model.PairingResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /pairing/{id} [get]
func (h *PairingHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", errors.New("pairing session not found"))
		return
	}
	writeJSON(w, http.StatusOK, pairingResponse(s, false))
}

// Cancel handles DELETE /pairing/{id}
// @Summary      Cancel a pairing
// @Description  Cancels the session. Cancelling a resolved session leaves it unchanged.
// @Tags         pairing
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  model.PairingResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /pairing/{id} [delete]
func (h *PairingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s, ok := h.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", errors.New("pairing session not found"))
		return
	}
	s.Cancel(r.Context())
	h.remove(id)
	writeJSON(w, http.StatusOK, pairingResponse(s, false))
}

// retire drops a resolved session after the retention period.
func (h *PairingHandler) retire(s *pairing.Session) {
	time.AfterFunc(sessionRetention, func() {
		h.remove(s.ID)
	})
}

func (h *PairingHandler) lookup(id string) (*pairing.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	return s, ok
}

func (h *PairingHandler) remove(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

func pairingResponse(s *pairing.Session, withQR bool) model.PairingResponse {
	resp := model.PairingResponse{
		ID:                s.ID,
		Provider:          s.Provider,
		State:             s.State().String(),
		QRURL:             s.QRPayload,
		DeepLink:          s.DeepLink,
		AttemptsRemaining: s.AttemptsRemaining(),
		Profile:           s.Profile(),
	}
	if withQR {
		qr, err := s.QRCode(common.DefaultQRSize)
		if err != nil {
			log.WithError(err).Warn("failed to render pairing QR code")
		}
		resp.QR = qr
	}
	return resp
}
